package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/term"

	"github.com/edwinbf09/daily-activities/cmd/agenda/ui"
	"github.com/edwinbf09/daily-activities/internal/cache"
	"github.com/edwinbf09/daily-activities/internal/client"
)

const redisCacheKey = "agenda:cache"

// app holds what every command needs once flags and settings are read.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	settings *settings
	client   *client.Client
	cache    *cache.Cache
	redis    *redis.Client
	offline  bool

	// interactive reports whether forms may be shown; replaced in tests.
	interactive func() bool
	lines       *bufio.Scanner
}

func (a *app) open(ctx context.Context, configPath, apiURL string, offline bool) error {
	s, err := loadSettings(configPath)
	if err != nil {
		return err
	}
	a.settings = s

	if apiURL == "" {
		apiURL = s.APIURL()
	}
	a.client = client.New(apiURL, client.WithToken(s.Token()))

	var persister cache.Persister
	if url := s.CacheRedis(); url != "" {
		opts, err := redis.ParseURL(url)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", keyCacheRedis, err)
		}
		a.redis = redis.NewClient(opts)
		persister = cache.NewRedisPersister(a.redis, redisCacheKey)
	} else {
		persister = cache.NewFilePersister(s.CacheFile())
	}

	a.cache = cache.New(persister)
	if err := a.cache.Load(ctx); err != nil {
		return err
	}

	a.offline = offline || s.Offline()
	a.cache.SetOffline(a.offline)
	return nil
}

func (a *app) close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}

// goOffline switches to queueing after the server turned out unreachable.
func (a *app) goOffline() {
	a.offline = true
	a.cache.SetOffline(true)
}

// remote runs call against the server. It reports false, with a nil error,
// when the change should instead be applied locally and queued.
func (a *app) remote(call func() error) (bool, error) {
	if a.offline {
		return false, nil
	}

	err := call()
	switch {
	case err == nil:
		return true, nil
	case unreachable(err):
		a.warn("server unreachable, change saved offline; run `agenda sync` later")
		a.goOffline()
		return false, nil
	default:
		return false, explain(err)
	}
}

// unreachable reports whether err is a transport failure rather than an
// answer from the server.
func unreachable(err error) bool {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return false
	}
	return !errors.Is(err, context.Canceled)
}

func explain(err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		return fmt.Errorf("%w; run `agenda login`", err)
	}
	return err
}

// resolveID accepts a full id or a unique prefix of a cached one.
func (a *app) resolveID(arg string) (uuid.UUID, error) {
	if id, err := uuid.Parse(arg); err == nil {
		return id, nil
	}

	prefix := strings.ToLower(strings.TrimSpace(arg))
	if prefix == "" {
		return uuid.Nil, fmt.Errorf("activity id is required")
	}

	var match uuid.UUID
	found := 0
	for _, act := range a.cache.Activities() {
		if strings.HasPrefix(act.ID.String(), prefix) {
			match = act.ID
			found++
		}
	}
	switch found {
	case 0:
		return uuid.Nil, fmt.Errorf("no cached activity matches %q; run `agenda list` first", arg)
	case 1:
		return match, nil
	default:
		return uuid.Nil, fmt.Errorf("%q matches %d activities, use more characters", arg, found)
	}
}

func (a *app) warn(msg string) {
	fmt.Fprintln(a.stderr, ui.Warn(msg))
}

func (a *app) isInteractive() bool {
	if a.interactive != nil {
		return a.interactive()
	}
	f, ok := a.stdin.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// readSecret prompts for a value without echo on a terminal, or reads the
// next line of stdin otherwise.
func (a *app) readSecret(prompt string) (string, error) {
	fmt.Fprint(a.stdout, prompt)
	defer fmt.Fprintln(a.stdout)

	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	if a.lines == nil {
		a.lines = bufio.NewScanner(a.stdin)
	}
	if a.lines.Scan() {
		return a.lines.Text(), nil
	}
	if err := a.lines.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
