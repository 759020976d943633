// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import (
	"context"
	"strings"

	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redact"
)

// FormatWithContextTags formats the string and prepends the context
// tags.
//
// Redaction markers are *not* inserted. The resulting
// string is generally unsafe for reporting.
func FormatWithContextTags(ctx context.Context, format string, args ...interface{}) string {
	return makeMessage(ctx, format, args, false /* redactUnsafe */)
}

// makeMessage renders the context tags in brackets, followed by the
// formatted message. When redactUnsafe is set, arguments not marked safe
// through the redact package are replaced by a marker.
func makeMessage(ctx context.Context, format string, args []interface{}, redactUnsafe bool) string {
	var buf strings.Builder
	formatTags(ctx, &buf)

	var msg redact.RedactableString
	if len(format) == 0 {
		msg = redact.Sprint(args...)
	} else {
		msg = redact.Sprintf(format, args...)
	}
	if redactUnsafe {
		buf.WriteString(msg.Redact().StripMarkers())
	} else {
		buf.WriteString(msg.StripMarkers())
	}
	return buf.String()
}

func formatTags(ctx context.Context, buf *strings.Builder) {
	tags := logtags.FromContext(ctx)
	if tags == nil {
		return
	}
	t := tags.Get()
	if len(t) == 0 {
		return
	}
	buf.WriteByte('[')
	for i := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(t[i].Key())
		if v := t[i].ValueStr(); v != "" {
			buf.WriteByte('=')
			buf.WriteString(v)
		}
	}
	buf.WriteString("] ")
}
