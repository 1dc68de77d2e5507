package whatsapp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/medshop/internal/config"
	"github.com/mamadbah2/medshop/internal/domain/models"
	"github.com/mamadbah2/medshop/internal/repository/memory"
	"github.com/mamadbah2/medshop/internal/service/commands"
	"github.com/mamadbah2/medshop/internal/service/inventory"
	"github.com/mamadbah2/medshop/internal/service/sales"
	"github.com/mamadbah2/medshop/internal/store"
	"github.com/mamadbah2/medshop/pkg/clients/anthropic"
	client "github.com/mamadbah2/medshop/pkg/clients/whatsapp"
)

type recordingClient struct {
	sent []client.SendTextMessageRequest
	err  error
}

func (c *recordingClient) SendTextMessage(_ context.Context, req client.SendTextMessageRequest) (*client.SendTextMessageResponse, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.sent = append(c.sent, req)
	return &client.SendTextMessageResponse{}, nil
}

type stubAI struct {
	reply string
	err   error
	calls int
}

func (a *stubAI) TranslateToCommand(context.Context, string) (string, error) {
	a.calls++
	return a.reply, a.err
}

func newTestService(t *testing.T, ai anthropic.Client) (*MetaWhatsAppService, *recordingClient) {
	t.Helper()
	st := store.New(memory.NewRepository(), nil)
	require.NoError(t, st.EnsureAll(context.Background()))
	dispatcher := commands.NewService(inventory.NewService(st, nil), sales.NewService(st, nil), nil)

	rc := &recordingClient{}
	cfg := config.WhatsAppConfig{VerifyToken: "verify-me", OperatorID: "224999"}
	return NewMetaWhatsAppService(cfg, rc, ai, dispatcher, nil), rc
}

func textPayload(from string, bodies ...string) models.WebhookPayload {
	var msgs []models.InboundMessage
	for i, body := range bodies {
		msgs = append(msgs, models.InboundMessage{From: from, ID: string(rune('a' + i)), Type: "text", Text: &models.TextContent{Body: body}})
	}
	return models.WebhookPayload{Entry: []models.WebhookEntry{{Changes: []models.WebhookChange{{Value: models.WebhookValue{Messages: msgs}}}}}}
}

func TestVerifyWebhookToken(t *testing.T) {
	svc, _ := newTestService(t, nil)

	challenge, err := svc.VerifyWebhookToken("subscribe", "verify-me", "123")
	require.NoError(t, err)
	assert.Equal(t, "123", challenge)

	_, err = svc.VerifyWebhookToken("subscribe", "wrong", "123")
	assert.Error(t, err)
	_, err = svc.VerifyWebhookToken("unsubscribe", "verify-me", "123")
	assert.Error(t, err)
	_, err = svc.VerifyWebhookToken("", "", "")
	assert.Error(t, err)
}

func TestHandleWebhookRepliesToEachCommand(t *testing.T) {
	svc, rc := newTestService(t, nil)

	err := svc.HandleWebhook(context.Background(), textPayload("224600",
		"/addstock gauze 50 10 0.75",
		"/sale gauze 100 Bob",
		"/help",
	))
	require.NoError(t, err)

	require.Len(t, rc.sent, 3)
	assert.Equal(t, "224600", rc.sent[0].To)
	assert.Equal(t, "Stock updated: gauze now has 60 units at $0.75.", rc.sent[0].Body)
	assert.Equal(t, "Not enough gauze in stock: 100 requested, 60 available.", rc.sent[1].Body)
	assert.Equal(t, commands.HelpText, rc.sent[2].Body)
}

func TestHandleWebhookUsesAIForFreeText(t *testing.T) {
	ai := &stubAI{reply: "/lowstock"}
	svc, rc := newTestService(t, ai)

	require.NoError(t, svc.HandleWebhook(context.Background(), textPayload("224600", "what is running low?")))
	assert.Equal(t, 1, ai.calls)
	require.Len(t, rc.sent, 1)
	assert.Equal(t, "All items are above 20% of initial stock.", rc.sent[0].Body)

	require.NoError(t, svc.HandleWebhook(context.Background(), textPayload("224600", "/help")))
	assert.Equal(t, 1, ai.calls, "known commands skip the AI")
}

func TestHandleWebhookAIFailureFallsBackToHelp(t *testing.T) {
	ai := &stubAI{err: errors.New("rate limited")}
	svc, rc := newTestService(t, ai)

	require.NoError(t, svc.HandleWebhook(context.Background(), textPayload("224600", "bonjour")))
	require.Len(t, rc.sent, 1)
	assert.Contains(t, rc.sent[0].Body, "Unknown command.")
}

func TestHandleWebhookReportsDeliveryFailure(t *testing.T) {
	svc, rc := newTestService(t, nil)
	rc.err = errors.New("meta down")

	err := svc.HandleWebhook(context.Background(), textPayload("224600", "/help"))
	assert.ErrorContains(t, err, "meta down")
}

func TestHandleWebhookIgnoresNonText(t *testing.T) {
	svc, rc := newTestService(t, nil)
	payload := models.WebhookPayload{Entry: []models.WebhookEntry{{Changes: []models.WebhookChange{{Value: models.WebhookValue{
		Messages: []models.InboundMessage{{From: "224600", Type: "image"}},
	}}}}}}

	require.NoError(t, svc.HandleWebhook(context.Background(), payload))
	assert.Empty(t, rc.sent)
}

func TestInteractiveReplyCarriesCommand(t *testing.T) {
	svc, rc := newTestService(t, nil)
	payload := models.WebhookPayload{Entry: []models.WebhookEntry{{Changes: []models.WebhookChange{{Value: models.WebhookValue{
		Messages: []models.InboundMessage{{From: "224600", Type: "interactive", Interactive: &models.InteractiveContent{
			Type: "button_reply", ButtonReply: &models.ReplyToken{ID: "/lowstock", Title: "Low stock"},
		}}},
	}}}}}}

	require.NoError(t, svc.HandleWebhook(context.Background(), payload))
	require.Len(t, rc.sent, 1)
	assert.Equal(t, "All items are above 20% of initial stock.", rc.sent[0].Body)
}

func TestNotifyOperator(t *testing.T) {
	svc, rc := newTestService(t, nil)

	require.NoError(t, svc.NotifyOperator(context.Background(), "report"))
	require.Len(t, rc.sent, 1)
	assert.Equal(t, "224999", rc.sent[0].To)

	svc.cfg.OperatorID = ""
	assert.ErrorIs(t, svc.NotifyOperator(context.Background(), "report"), ErrNoOperator)
}
