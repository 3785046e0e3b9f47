// Package bot talks to a Dialogflow ES agent the way a user would: one text
// query at a time inside a session.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	dialogflow "cloud.google.com/go/dialogflow/apiv2"
	"cloud.google.com/go/dialogflow/apiv2/dialogflowpb"
	"github.com/google/uuid"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"

	"github.com/cgast/dialogcheck/pkg/result"
	"github.com/cgast/dialogcheck/pkg/structval"
)

// DefaultLanguage is used when no language code is given.
const DefaultLanguage = "en"

// SessionsClient is the subset of the Dialogflow sessions API a Bot needs.
// *dialogflow.SessionsClient satisfies it.
type SessionsClient interface {
	DetectIntent(ctx context.Context, req *dialogflowpb.DetectIntentRequest, opts ...gax.CallOption) (*dialogflowpb.DetectIntentResponse, error)
	Close() error
}

// Querier sends a text query and returns the agent's answer. The runner
// depends on this rather than on *Bot.
type Querier interface {
	Request(ctx context.Context, text string) (result.QueryResult, error)
	NewSession() Querier
	SessionPath() string
}

// Bot is a Dialogflow session bound to a project, a surface and a language.
type Bot struct {
	client    SessionsClient
	projectID string
	surface   result.Surface
	language  string
	sessionID string
	logger    *slog.Logger
}

var _ Querier = (*Bot)(nil)

// Option configures a Bot.
type Option func(*Bot)

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bot) {
		if l != nil {
			b.logger = l
		}
	}
}

// New dials Dialogflow and opens a fresh session. Client options such as
// option.WithCredentialsFile are passed through to the sessions client.
func New(ctx context.Context, projectID string, surface result.Surface, language string, clientOpts []option.ClientOption, opts ...Option) (*Bot, error) {
	if projectID == "" {
		return nil, errors.New("create bot: project id is required")
	}
	client, err := dialogflow.NewSessionsClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sessions client: %w", err)
	}
	return NewWithClient(client, projectID, surface, language, opts...), nil
}

// NewWithClient builds a Bot on an existing client.
func NewWithClient(client SessionsClient, projectID string, surface result.Surface, language string, opts ...Option) *Bot {
	if language == "" {
		language = DefaultLanguage
	}
	b := &Bot{
		client:    client,
		projectID: projectID,
		surface:   surface,
		language:  language,
		sessionID: uuid.New().String(),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SessionPath returns the fully qualified session name.
func (b *Bot) SessionPath() string {
	return fmt.Sprintf("projects/%s/agent/sessions/%s", b.projectID, b.sessionID)
}

// NewSession returns a Bot with the same settings and client but a new
// session, so no contexts carry over.
func (b *Bot) NewSession() Querier {
	nb := *b
	nb.sessionID = uuid.New().String()
	return &nb
}

// Request sends text as a user utterance and returns the converted result.
func (b *Bot) Request(ctx context.Context, text string) (result.QueryResult, error) {
	req := b.detectIntentRequest(text)
	b.logger.Debug("detect intent", "session", req.Session, "query", text, "surface", b.surface.String())

	resp, err := b.client.DetectIntent(ctx, req)
	if err != nil {
		return result.QueryResult{}, fmt.Errorf("detect intent %q: %w", text, err)
	}
	qr := result.FromProto(resp.GetQueryResult())
	b.logger.Debug("intent detected", "session", req.Session, "intent", qr.Intent.DisplayName)
	return qr, nil
}

func (b *Bot) detectIntentRequest(text string) *dialogflowpb.DetectIntentRequest {
	return &dialogflowpb.DetectIntentRequest{
		Session: b.SessionPath(),
		QueryInput: &dialogflowpb.QueryInput{
			Input: &dialogflowpb.QueryInput_Text{
				Text: &dialogflowpb.TextInput{Text: text, LanguageCode: b.language},
			},
		},
		QueryParams: &dialogflowpb.QueryParameters{
			Payload: structval.MapToStruct(map[string]any{"source": b.surface.String()}),
		},
	}
}

// Close releases the underlying client. Sessions derived with NewSession
// share it, so close only the root Bot.
func (b *Bot) Close() error {
	if b.client == nil {
		return nil
	}
	if err := b.client.Close(); err != nil {
		return fmt.Errorf("close sessions client: %w", err)
	}
	return nil
}
