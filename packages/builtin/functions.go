package builtin

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"math/rand"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Func func(args []string) any

type Registry struct {
	funcs map[string]Func
	now   func() time.Time
}

func NewRegistry() *Registry {
	r := &Registry{
		funcs: make(map[string]Func),
		now:   time.Now,
	}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	r.funcs["uuid"] = funcUUID
	r.funcs["now"] = func(_ []string) any { return r.now().UTC().Format(time.RFC3339) }
	r.funcs["timestamp"] = func(_ []string) any { return r.now().Unix() }
	r.funcs["timestampMs"] = func(_ []string) any { return r.now().UnixMilli() }
	r.funcs["date"] = func(args []string) any {
		layout := "2006-01-02"
		if len(args) >= 1 && args[0] != "" {
			layout = args[0]
		}
		return r.now().UTC().Format(layout)
	}
	r.funcs["random"] = funcRandom
	r.funcs["randomString"] = funcRandomString
	r.funcs["base64"] = unary(func(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) })
	r.funcs["base64Decode"] = unary(func(s string) string {
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return ""
		}
		return string(decoded)
	})
	r.funcs["sha256"] = unary(func(s string) string {
		sum := sha256.Sum256([]byte(s))
		return hex.EncodeToString(sum[:])
	})
	r.funcs["urlEncode"] = unary(url.QueryEscape)
	r.funcs["urlDecode"] = unary(func(s string) string {
		decoded, err := url.QueryUnescape(s)
		if err != nil {
			return s
		}
		return decoded
	})
}

// Register adds or replaces a function.
func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = fn
}

// Names returns the registered function names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	return names
}

var funcCallPattern = regexp.MustCompile(`^(\w+)\((.*)\)$`)

// Call evaluates an expression like name(arg1, "arg 2"). It reports false
// when the expression is not a call or names an unknown function.
func (r *Registry) Call(expr string) (any, bool) {
	matches := funcCallPattern.FindStringSubmatch(strings.TrimSpace(expr))
	if matches == nil {
		return nil, false
	}

	fn, ok := r.funcs[matches[1]]
	if !ok {
		return nil, false
	}

	var args []string
	if matches[2] != "" {
		args = parseArgs(matches[2])
	}

	return fn(args), true
}

func parseArgs(s string) []string {
	var args []string
	var current strings.Builder
	quoteChar := byte(0)

	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quoteChar == 0 && (ch == '"' || ch == '\''):
			quoteChar = ch
		case quoteChar != 0 && ch == quoteChar:
			quoteChar = 0
		case quoteChar == 0 && ch == ',':
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}

	if current.Len() > 0 {
		args = append(args, strings.TrimSpace(current.String()))
	}

	return args
}

func unary(fn func(string) string) Func {
	return func(args []string) any {
		if len(args) < 1 {
			return ""
		}
		return fn(args[0])
	}
}

func funcUUID(_ []string) any {
	return uuid.New().String()
}

func intArg(args []string, i, fallback int) int {
	if len(args) <= i {
		return fallback
	}
	v, err := strconv.Atoi(args[i])
	if err != nil {
		return fallback
	}
	return v
}

func funcRandom(args []string) any {
	lo, hi := intArg(args, 0, 0), intArg(args, 1, 100)
	if hi < lo {
		lo, hi = hi, lo
	}
	return rand.Intn(hi-lo+1) + lo
}

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func funcRandomString(args []string) any {
	length := intArg(args, 0, 16)
	if length < 0 {
		length = 0
	}
	result := make([]byte, length)
	for i := range result {
		result[i] = alphanumeric[rand.Intn(len(alphanumeric))]
	}
	return string(result)
}
