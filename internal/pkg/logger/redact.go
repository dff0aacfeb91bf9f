package logger

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// Field keys whose values never reach the log output.
var sensitiveKeys = []string{
	"authorization",
	"x-api-key",
	"password",
	"passwordhash",
	"apikeyhash",
	"refreshtoken",
	"accesstoken",
	"sessiontoken",
	"token",
	"secret",
}

// redactingCore drops sensitive fields before they are encoded.
type redactingCore struct {
	zapcore.Core
}

// NewRedactingCore wraps core so that fields named like credentials are removed.
func NewRedactingCore(core zapcore.Core) zapcore.Core {
	return &redactingCore{Core: core}
}

func (c *redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactingCore{Core: c.Core.With(redact(fields))}
}

func (c *redactingCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *redactingCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	return c.Core.Write(ent, redact(fields))
}

func redact(fields []zapcore.Field) []zapcore.Field {
	out := fields[:0:0]
	for _, f := range fields {
		if IsSensitiveKey(f.Key) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// IsSensitiveKey reports whether a field key names credential material.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(key))
	for _, s := range sensitiveKeys {
		if k == strings.ReplaceAll(s, "-", "") {
			return true
		}
	}
	return false
}
