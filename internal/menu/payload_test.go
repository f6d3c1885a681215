package menu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMenuPayload_SwitchResolution(t *testing.T) {
	menus := []Menu{
		{
			ID: "menu-a", Name: "Main", BarText: "Menu", IsMain: true,
			Hotspots: []Hotspot{
				{ID: "h1", X: 0, Y: 0, Width: 1250, Height: 843,
					Action: Action{Type: ActionSwitch, Data: "menu-b"}},
			},
		},
		{ID: "menu-b", Name: "Sub", BarText: "Sub"},
	}

	t.Run("resolves sibling to alias", func(t *testing.T) {
		p := BuildMenuPayload(menus[0], menus)
		require.Len(t, p.Areas, 1)

		a := p.Areas[0].Action
		assert.Equal(t, "richmenuswitch", a.Type)
		assert.Equal(t, DeriveAlias("menu-b"), a.RichMenuAliasID)
		assert.Equal(t, "Sub", a.Label, "label defaults to target menu name")
		assert.Equal(t, "switch_to_menu-b", a.Data)
	})

	t.Run("dangling target degrades to message", func(t *testing.T) {
		dangling := menus[0]
		dangling.Hotspots = []Hotspot{
			{Action: Action{Type: ActionSwitch, Data: "no-such-menu"}},
		}

		p := BuildMenuPayload(dangling, menus)
		require.Len(t, p.Areas, 1)

		a := p.Areas[0].Action
		assert.Equal(t, "message", a.Type)
		assert.NotEmpty(t, a.Text)
		assert.Empty(t, a.RichMenuAliasID)
	})
}

func TestBuildMenuPayload_NoneAction(t *testing.T) {
	m := Menu{
		ID: "m1", Name: "Main", BarText: "Menu",
		Hotspots: []Hotspot{{Action: Action{Type: ActionNone}}},
	}

	p := BuildMenuPayload(m, []Menu{m})
	require.Len(t, p.Areas, 1)

	a := p.Areas[0].Action
	assert.Equal(t, "message", a.Type)
	assert.NotEmpty(t, a.Text, "platform rejects empty message text")
}

func TestBuildMenuPayload_Defaults(t *testing.T) {
	m := Menu{
		ID: "m1", Name: "Main", BarText: "Menu",
		Hotspots: []Hotspot{
			{Action: Action{Type: ActionMessage}},
			{Action: Action{Type: ActionURI}},
		},
	}

	p := BuildMenuPayload(m, []Menu{m})
	require.Len(t, p.Areas, 2)

	assert.Equal(t, "message", p.Areas[0].Action.Type)
	assert.NotEmpty(t, p.Areas[0].Action.Label)
	assert.NotEmpty(t, p.Areas[0].Action.Text)

	assert.Equal(t, "uri", p.Areas[1].Action.Type)
	assert.Equal(t, "https://line.me", p.Areas[1].Action.URI)
}

func TestBuildMenuPayload_PreservesOrderAndBounds(t *testing.T) {
	m := Menu{
		ID: "m1", Name: "Main", BarText: "Menu", IsMain: true,
		Hotspots: []Hotspot{
			{X: 0, Y: 0, Width: 833, Height: 843, Action: Action{Type: ActionMessage, Data: "a"}},
			{X: 833, Y: 0, Width: 833, Height: 843, Action: Action{Type: ActionMessage, Data: "b"}},
			{X: 1666, Y: 0, Width: 834, Height: 843, Action: Action{Type: ActionMessage, Data: "c"}},
		},
	}

	p := BuildMenuPayload(m, []Menu{m})
	require.Len(t, p.Areas, 3)

	assert.Equal(t, Size{Width: 2500, Height: 1686}, p.Size)
	assert.True(t, p.Selected)
	assert.Equal(t, "Menu", p.ChatBarText)

	assert.Equal(t, "a", p.Areas[0].Action.Text)
	assert.Equal(t, "b", p.Areas[1].Action.Text)
	assert.Equal(t, "c", p.Areas[2].Action.Text)
	assert.Equal(t, Bounds{X: 833, Y: 0, Width: 833, Height: 843}, p.Areas[1].Bounds)
}

func TestBuildPublishRequest(t *testing.T) {
	menus := []Menu{
		{
			ID: "m1", Name: "Main", BarText: "Menu", IsMain: true,
			ImageData: "iVBORw0KGgo=",
			Hotspots: []Hotspot{
				{X: 0, Y: 0, Width: 2500, Height: 1686,
					Action: Action{Type: ActionURI, Data: "https://example.com"}},
			},
		},
	}

	req := BuildPublishRequest(menus)
	require.Len(t, req.Menus, 1)

	entry := req.Menus[0]
	assert.Equal(t, "m1", entry.AliasID)
	assert.True(t, entry.IsMain)
	assert.Equal(t, "iVBORw0KGgo=", entry.ImageBase64)
	assert.Equal(t, "Main", entry.MenuName)

	require.Len(t, entry.MenuData.Areas, 1)
	a := entry.MenuData.Areas[0].Action
	assert.Equal(t, "uri", a.Type)
	assert.Equal(t, "https://example.com", a.URI)
	assert.NotEmpty(t, a.Label)
}
