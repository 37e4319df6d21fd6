package mcp

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/rewind"
	"github.com/aretw0/rewind/pkg/domain"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := domain.NewConfig("idle").
		AddState("idle", map[string]string{"start": "running"}).
		AddState("running", map[string]string{"stop": "idle", "crash": "limbo"})
	m, err := rewind.New(cfg)
	require.NoError(t, err)
	return NewServer(m)
}

func TestServer_Handlers(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)
	req := mcp.CallToolRequest{}

	resp, err := s.handleGetState(ctx, req, NoArgs{})
	require.NoError(t, err)
	assert.Equal(t, "idle", resp.Current)

	resp, err = s.handleTrigger(ctx, req, TriggerArgs{Event: "start"})
	require.NoError(t, err)
	assert.Equal(t, "running", resp.Current)
	assert.Equal(t, []string{"idle", "running"}, resp.History)

	_, err = s.handleTrigger(ctx, req, TriggerArgs{Event: "start"})
	assert.ErrorIs(t, err, domain.ErrNoTransition)

	_, err = s.handleTrigger(ctx, req, TriggerArgs{Event: "crash"})
	assert.ErrorIs(t, err, domain.ErrUnknownState)

	resp, err = s.handleUndo(ctx, req, NoArgs{})
	require.NoError(t, err)
	require.NotNil(t, resp.Moved)
	assert.True(t, *resp.Moved)
	assert.Equal(t, "idle", resp.Current)

	resp, err = s.handleRedo(ctx, req, NoArgs{})
	require.NoError(t, err)
	assert.True(t, *resp.Moved)
	assert.False(t, resp.CanRedo)

	resp, err = s.handleRedo(ctx, req, NoArgs{})
	require.NoError(t, err)
	assert.False(t, *resp.Moved)

	_, err = s.handleChangeState(ctx, req, ChangeStateArgs{State: "nowhere"})
	assert.ErrorIs(t, err, domain.ErrUnknownState)

	resp, err = s.handleReset(ctx, req, NoArgs{})
	require.NoError(t, err)
	assert.Equal(t, []string{"idle", "running", "idle"}, resp.History)
	assert.Equal(t, 2, resp.Position)

	resp, err = s.handleClearHistory(ctx, req, NoArgs{})
	require.NoError(t, err)
	assert.Empty(t, resp.History)
	assert.False(t, resp.CanUndo)

	assert.Equal(t, []string{"running"}, s.listStates("stop"))
	assert.Equal(t, []string{"idle", "running"}, s.listStates(""))
}

func TestServer_Graph(t *testing.T) {
	s := newTestServer(t)
	out := s.graph()
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "class idle current")

	_, err := s.handleTrigger(context.Background(), mcp.CallToolRequest{}, TriggerArgs{Event: "start"})
	require.NoError(t, err)

	out = s.graph()
	assert.Contains(t, out, "class running current")
	assert.Contains(t, out, "class idle visited")
}

func TestServer_StructuredHandlerReportsErrors(t *testing.T) {
	s := newTestServer(t)
	handler := mcp.NewStructuredToolHandler(s.handleTrigger)

	req := mcp.CallToolRequest{}
	req.Params.Name = "trigger"
	req.Params.Arguments = map[string]any{"event": "explode"}

	result, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
}
