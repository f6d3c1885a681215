package menu

// Canvas size of the editor, matching the full-size LINE rich menu.
const (
	CanvasWidth  = 2500
	CanvasHeight = 1686
)

// Limits imposed by the LINE platform on rich menu images and aliases.
const (
	MaxAliasLength   = 32
	MaxBarTextLength = 20
	MaxImageBytes    = 1024 * 1024 // 1MB
	MinImageWidth    = 800
	MaxImageWidth    = 2500
	MinImageHeight   = 250
	MinAspectRatio   = 1.45
	MaxSubMenus      = 9
)

type ActionType string

const (
	ActionNone    ActionType = "none"
	ActionMessage ActionType = "message"
	ActionURI     ActionType = "uri"
	ActionSwitch  ActionType = "switch"
)

// Action is what a tapped hotspot does. Data is free text for message
// actions, a URL for uri actions and a target menu ID for switch actions.
type Action struct {
	Type  ActionType `json:"type"`
	Label string     `json:"label,omitempty"`
	Data  string     `json:"data"`
}

// Hotspot is a rectangular tappable region within the canvas.
type Hotspot struct {
	ID     string `json:"id"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Action Action `json:"action"`
}

// Menu is one rich menu layout. A project holds exactly one main menu and
// up to nine sub menus linked via switch actions.
type Menu struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	BarText   string    `json:"barText"`
	IsMain    bool      `json:"isMain"`
	ImageData string    `json:"imageData,omitempty"` // base64, possibly with data: prefix
	ImageURL  string    `json:"imageUrl,omitempty"`  // remote blob reference
	Hotspots  []Hotspot `json:"hotspots"`
}

// HasImage reports whether the menu carries any background image reference.
func (m *Menu) HasImage() bool {
	return m.ImageData != "" || m.ImageURL != ""
}
