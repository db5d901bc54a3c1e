// Package mtproto is the user-account side of the bot: it owns the target
// chat's invite links, which the Bot API can create but cannot list.
package mtproto

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"invitebot/internal/config"
	"invitebot/lib/sl"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
)

var ErrNotReady = errors.New("mtproto client is not connected")

// CodeFunc returns the login code sent to the account on first start.
type CodeFunc func(ctx context.Context, sentCode *tg.AuthSentCode) (string, error)

type Client struct {
	client   *telegram.Client
	phone    string
	password string
	code     CodeFunc
	log      *slog.Logger

	mu     sync.RWMutex
	api    *tg.Client
	peers  map[int64]tg.InputPeerClass
	ready  chan struct{}
	done   chan struct{}
	cancel context.CancelFunc
	err    error
}

func New(conf *config.Config, log *slog.Logger) *Client {
	tc := conf.Telegram
	return &Client{
		client: telegram.NewClient(tc.ApiId, tc.ApiHash, telegram.Options{
			SessionStorage: &session.FileStorage{Path: tc.Session},
		}),
		phone:    tc.Phone,
		password: tc.Password,
		code:     terminalCode,
		log:      log.With(sl.Module("mtproto")),
		peers:    make(map[int64]tg.InputPeerClass),
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// SetCodeFunc replaces the interactive code prompt.
func (c *Client) SetCodeFunc(fn CodeFunc) {
	c.code = fn
}

// Start connects and signs in, blocking until the account is usable or the connection fails.
func (c *Client) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	go func() {
		defer close(c.done)
		err := c.client.Run(ctx, func(ctx context.Context) error {
			flow := auth.NewFlow(
				auth.Constant(c.phone, c.password, auth.CodeAuthenticatorFunc(c.code)),
				auth.SendCodeOptions{},
			)
			if err := c.client.Auth().IfNecessary(ctx, flow); err != nil {
				return fmt.Errorf("auth: %w", err)
			}
			self, err := c.client.Self(ctx)
			if err != nil {
				return fmt.Errorf("get self: %w", err)
			}
			c.log.With(
				slog.Int64("user_id", self.ID),
				slog.String("username", self.Username),
			).Info("signed in")

			c.mu.Lock()
			c.api = c.client.API()
			c.mu.Unlock()
			close(c.ready)

			<-ctx.Done()
			return ctx.Err()
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			c.log.Error("client stopped", sl.Err(err))
		}
		c.mu.Lock()
		c.err = err
		c.api = nil
		c.mu.Unlock()
	}()

	select {
	case <-c.ready:
		return nil
	case <-c.done:
		c.mu.RLock()
		defer c.mu.RUnlock()
		return fmt.Errorf("mtproto start: %w", c.err)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
	c.log.Info("disconnected")
}

func (c *Client) API() (*tg.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.api == nil {
		return nil, ErrNotReady
	}
	return c.api, nil
}

func terminalCode(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	fmt.Print("Enter the login code: ")
	code, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(code), nil
}
