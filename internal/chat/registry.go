package chat

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/Alextibtab/twitch-streaming-tool/internal/metrics"
)

const apologyReply = "Sorry, something went wrong running that command. Please try again later."

// Per-user command rate limit: one command per second, burst of three.
const (
	commandRate  = rate.Limit(1)
	commandBurst = 3
)

// Handler processes a chat command. The returned string is sent back to chat
// when non-empty. A returned error (or panic) is contained at the dispatch
// boundary and replaced with a generic apology.
type Handler func(msg Message) (string, error)

// Registry maps command names to handlers. Names are normalized to lowercase
// and duplicate registration overwrites the previous handler.
type Registry struct {
	prefix string

	mu       sync.RWMutex
	handlers map[string]Handler
	limiters map[string]*rate.Limiter
}

// NewRegistry creates a registry with the built-in help command already registered.
func NewRegistry(prefix string) *Registry {
	r := &Registry{
		prefix:   prefix,
		handlers: make(map[string]Handler),
		limiters: make(map[string]*rate.Limiter),
	}
	r.Register("help", r.handleHelp)
	return r
}

// Register adds a handler under the given name (lowercased, last write wins).
func (r *Registry) Register(name string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[strings.ToLower(name)] = handler
}

// Names returns the currently registered command names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch routes a message to its command handler and returns the reply,
// or "" when there is nothing to say. Messages without the command prefix
// are a no-op. Unknown command names are silently ignored; replying to
// every typo would make the bot noisy in busy chats.
func (r *Registry) Dispatch(msg Message) string {
	if !strings.HasPrefix(msg.Text, r.prefix) {
		return ""
	}

	fields := strings.Fields(msg.Text)
	if len(fields) == 0 {
		return ""
	}
	name := strings.ToLower(strings.TrimPrefix(fields[0], r.prefix))

	r.mu.RLock()
	handler, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		return ""
	}

	if !r.allow(msg.User.Login) {
		metrics.ChatCommandsTotal.WithLabelValues(name, "rate_limited").Inc()
		slog.Debug("Dropping rate-limited command", "command", name, "user", msg.User.Login)
		return ""
	}

	slog.Info("Executing command", "command", name, "user", msg.User.Login)
	reply, err := r.invoke(name, handler, msg)
	if err != nil {
		metrics.ChatCommandsTotal.WithLabelValues(name, "error").Inc()
		slog.Error("Command handler failed", "command", name, "user", msg.User.Login, "error", err)
		return apologyReply
	}

	metrics.ChatCommandsTotal.WithLabelValues(name, "ok").Inc()
	return reply
}

// invoke runs a handler with panic containment.
func (r *Registry) invoke(name string, handler Handler, msg Message) (reply string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panicked: %v", rec)
		}
	}()
	return handler(msg)
}

func (r *Registry) allow(login string) bool {
	r.mu.Lock()
	limiter, ok := r.limiters[login]
	if !ok {
		limiter = rate.NewLimiter(commandRate, commandBurst)
		r.limiters[login] = limiter
	}
	r.mu.Unlock()
	return limiter.Allow()
}

// handleHelp enumerates all other registered commands at call time.
func (r *Registry) handleHelp(Message) (string, error) {
	var others []string
	for _, name := range r.Names() {
		if name == "help" {
			continue
		}
		others = append(others, r.prefix+name)
	}
	others = append(others, r.prefix+"help")
	return "Available commands: " + strings.Join(others, ", "), nil
}
