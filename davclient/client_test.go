package davclient

import (
	"context"
	"testing"
	"time"

	"github.com/cyp0633/caldora-client/internal/davtest"
	"github.com/emersion/go-ical"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientRoundTrip(t *testing.T) {
	dav := davtest.NewServer("user1", "password1", davtest.AuthBasic, nil)
	server := dav.Start()
	defer server.Close()

	client, err := NewClient(Settings{
		URI:      server.URL + "/cal/",
		Username: "user1",
		Password: "password1",
	}, WithTimeout(5*time.Second))
	require.NoError(t, err)
	ctx := context.Background()

	event, err := client.CreateEvent(ctx, func(e *ical.Event) {
		e.Props.SetText(ical.PropSummary, "Kickoff")
		e.Props.SetDateTime(ical.PropDateTimeStart, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
		e.Props.SetDateTime(ical.PropDateTimeEnd, time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC))
	})
	require.NoError(t, err)
	uid, err := event.Props.Text(ical.PropUID)
	require.NoError(t, err)
	require.NotEmpty(t, uid)

	found, err := client.FindEvent(ctx, uid)
	require.NoError(t, err)
	summary, _ := found.Props.Text(ical.PropSummary)
	assert.Equal(t, "Kickoff", summary)

	events, err := client.FindEvents(ctx, "2024-01-01T00:00:00Z", "2024-01-02T00:00:00Z")
	require.NoError(t, err)
	assert.Len(t, events, 1)

	events, err = client.FindEvents(ctx, "2024-02-01T00:00:00Z", "2024-02-02T00:00:00Z")
	require.NoError(t, err)
	assert.Empty(t, events)

	found.Props.SetText(ical.PropSummary, "Kickoff (moved)")
	updated, err := client.UpdateEvent(ctx, found)
	require.NoError(t, err)
	summary, _ = updated.Props.Text(ical.PropSummary)
	assert.Equal(t, "Kickoff (moved)", summary)

	todo, err := client.CreateTodo(ctx, TodoAttributes{Summary: "Send notes", PercentComplete: mo.Some(0)})
	require.NoError(t, err)
	todoUID, _ := todo.Props.Text(ical.PropUID)

	todos, err := client.FindTodos(ctx)
	require.NoError(t, err)
	assert.Len(t, todos, 1)

	deleted, err := client.DeleteEvent(ctx, uid)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = client.DeleteTodo(ctx, todoUID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = client.FindEvent(ctx, uid)
	assert.Equal(t, KindNotExist, KindOf(err))

	assert.Zero(t, dav.Store.Len())
}

func TestClientWrongCredentials(t *testing.T) {
	dav := davtest.NewServer("user1", "password1", davtest.AuthBasic, nil)
	server := dav.Start()
	defer server.Close()

	client, err := NewClient(Settings{
		URI:      server.URL + "/cal/",
		Username: "user1",
		Password: "wrong",
	}, WithRetry(RetryPolicy{Attempts: 2}))
	require.NoError(t, err)

	_, err = client.FindTodos(context.Background())
	assert.Equal(t, KindAuthentication, KindOf(err))

	assert.Equal(t, []string{"REPORT /cal/", "REPORT /cal/"}, dav.Requests())
}

func TestClientDigest(t *testing.T) {
	dav := davtest.NewServer("user1", "password1", davtest.AuthDigest, nil)
	server := dav.Start()
	defer server.Close()

	client, err := NewClient(Settings{
		URI:      server.URL + "/cal/",
		Username: "user1",
		Password: "password1",
		AuthType: "digest",
	})
	require.NoError(t, err)

	todo, err := client.CreateTodo(context.Background(), TodoAttributes{Summary: "Digest works"})
	require.NoError(t, err)
	uid, _ := todo.Props.Text(ical.PropUID)
	path := "/cal/" + uid + ".ics"

	// every authorized request is preceded by its own challenge probe
	assert.Equal(t, []string{
		"GET " + path, "GET " + path,
		"GET " + path, "PUT " + path,
		"GET " + path, "GET " + path,
	}, dav.Requests())
}

func TestClientDigestWrongPassword(t *testing.T) {
	dav := davtest.NewServer("user1", "password1", davtest.AuthDigest, nil)
	server := dav.Start()
	defer server.Close()

	client, err := NewClient(Settings{
		URI:      server.URL + "/cal/",
		Username: "user1",
		Password: "nope",
		AuthType: "digest",
	}, WithRetry(RetryPolicy{Attempts: 1}))
	require.NoError(t, err)

	_, err = client.FindEvent(context.Background(), "missing")
	assert.Equal(t, KindAuthentication, KindOf(err))
}

func TestNewClientInvalidSettings(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
	}{
		{"unknown auth type", Settings{URI: "https://cal.example.com/", AuthType: "kerberos"}},
		{"missing uri", Settings{Username: "alice"}},
		{"missing username", Settings{URI: "https://cal.example.com/"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.settings)
			assert.Equal(t, KindConfig, KindOf(err))
		})
	}
}

func TestParseUpdateStrategy(t *testing.T) {
	s, err := ParseUpdateStrategy("")
	require.NoError(t, err)
	assert.Equal(t, UpdateOverwrite, s)

	s, err = ParseUpdateStrategy("delete-create")
	require.NoError(t, err)
	assert.Equal(t, UpdateDeleteCreate, s)

	_, err = ParseUpdateStrategy("merge")
	assert.Equal(t, KindConfig, KindOf(err))
}
