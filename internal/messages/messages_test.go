package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/gsit/internal/attach"
	"git.home.luguber.info/inful/gsit/internal/sim"
	"git.home.luguber.info/inful/gsit/internal/world"
)

type delivery struct {
	player string
	text   string
}

func recorder(out *[]delivery) Sink {
	return SinkFunc(func(p world.Player, text string) {
		*out = append(*out, delivery{player: p.Name(), text: text})
	})
}

func TestService_RendersBaseLocale(t *testing.T) {
	var got []delivery
	s, err := New("en", nil, recorder(&got))
	require.NoError(t, err)

	p := sim.NewPlayer("alex", world.Location{})
	s.SendTransient(p, attach.MessagePoseInfo)
	require.Len(t, got, 1)
	assert.Equal(t, delivery{player: "alex", text: "Press sneak to get up"}, got[0])
}

func TestService_SelectsClosestLanguage(t *testing.T) {
	s, err := New("de-AT", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "de", s.Language().String())
	assert.Equal(t, "Schleichen zum Aufstehen", s.Text(attach.MessagePoseInfo))

	s, err = New("fr", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "en", s.Language().String())
}

func TestService_Overrides(t *testing.T) {
	s, err := New("en", map[string]string{attach.MessageCrawlInfo: "Sneak to stand up"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Sneak to stand up", s.Text(attach.MessageCrawlInfo))
	assert.Equal(t, "Press sneak to get up", s.Text(attach.MessagePoseInfo))
	assert.Equal(t, "unknown.key", s.Text("unknown.key"))

	require.NoError(t, s.Reload("en", nil))
	assert.Equal(t, "Press sneak to stop crawling", s.Text(attach.MessageCrawlInfo))
}

func TestService_SkipsInvalidSessions(t *testing.T) {
	var got []delivery
	s, err := New("en", nil, recorder(&got))
	require.NoError(t, err)

	p := sim.NewPlayer("alex", world.Location{})
	p.Disconnect()
	s.SendTransient(p, attach.MessagePoseInfo)
	assert.Empty(t, got)
}

func TestNew_RejectsBadLanguage(t *testing.T) {
	_, err := New("not a tag!", nil, nil)
	require.Error(t, err)
}
