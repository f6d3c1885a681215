package menu

// Wire types for the LINE rich menu object schema.
// https://developers.line.biz/en/reference/messaging-api/#rich-menu-object

type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type AreaAction struct {
	Type            string `json:"type"`
	Label           string `json:"label,omitempty"`
	Text            string `json:"text,omitempty"`
	URI             string `json:"uri,omitempty"`
	Data            string `json:"data,omitempty"`
	RichMenuAliasID string `json:"richMenuAliasId,omitempty"`
}

type Area struct {
	Bounds Bounds     `json:"bounds"`
	Action AreaAction `json:"action"`
}

type Payload struct {
	Size        Size   `json:"size"`
	Selected    bool   `json:"selected"`
	Name        string `json:"name"`
	ChatBarText string `json:"chatBarText"`
	Areas       []Area `json:"areas"`
}

// Defaults filled in where the editor left a field blank. The platform
// rejects empty labels/texts, so conversion never emits them.
const (
	defaultMessageLabel = "訊息"
	defaultMessageText  = "預設訊息"
	defaultURILabel     = "開啟連結"
	defaultURI          = "https://line.me"
	switchErrorLabel    = "錯誤"
	switchErrorText     = "目標選單不存在"
	noneLabel           = "-"
	noneText            = " "
)

// BuildMenuPayload converts one menu into the platform schema. siblings is
// the full menu set of the project, needed to resolve switch targets.
func BuildMenuPayload(m Menu, siblings []Menu) Payload {
	byID := make(map[string]Menu, len(siblings))
	for _, s := range siblings {
		byID[s.ID] = s
	}

	areas := make([]Area, 0, len(m.Hotspots))
	for _, h := range m.Hotspots {
		areas = append(areas, convertHotspot(h, byID))
	}

	return Payload{
		Size:        Size{Width: CanvasWidth, Height: CanvasHeight},
		Selected:    m.IsMain,
		Name:        m.Name,
		ChatBarText: m.BarText,
		Areas:       areas,
	}
}

// convertHotspot is total over the action variants: whatever the input, the
// returned area is structurally valid for the platform.
func convertHotspot(h Hotspot, byID map[string]Menu) Area {
	area := Area{
		Bounds: Bounds{X: h.X, Y: h.Y, Width: h.Width, Height: h.Height},
	}

	switch h.Action.Type {
	case ActionMessage:
		area.Action = AreaAction{
			Type:  "message",
			Label: orDefault(h.Action.Label, defaultMessageLabel),
			Text:  orDefault(h.Action.Data, defaultMessageText),
		}

	case ActionURI:
		area.Action = AreaAction{
			Type:  "uri",
			Label: orDefault(h.Action.Label, defaultURILabel),
			URI:   orDefault(h.Action.Data, defaultURI),
		}

	case ActionSwitch:
		target, ok := byID[h.Action.Data]
		if !ok {
			// Dangling reference. Validation should have caught this;
			// degrade to a visible error message instead of emitting an
			// invalid payload.
			area.Action = AreaAction{
				Type:  "message",
				Label: switchErrorLabel,
				Text:  switchErrorText,
			}
			break
		}
		area.Action = AreaAction{
			Type:            "richmenuswitch",
			Label:           orDefault(h.Action.Label, target.Name),
			RichMenuAliasID: DeriveAlias(target.ID),
			// Traceability tag, not consumed by the platform.
			Data: "switch_to_" + target.ID,
		}

	default: // ActionNone and anything unknown
		// The platform has no no-op action type; a single-space message is
		// the closest safe equivalent.
		area.Action = AreaAction{
			Type:  "message",
			Label: noneLabel,
			Text:  noneText,
		}
	}

	return area
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// PublishMenu is one prepared entry of a publish request: the built wire
// payload plus the image reference and alias the orchestrator needs.
type PublishMenu struct {
	MenuData    Payload `json:"menuData"`
	ImageBase64 string  `json:"imageBase64,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	AliasID     string  `json:"aliasId"`
	IsMain      bool    `json:"isMain"`
	MenuName    string  `json:"menuName"`
}

type PublishRequest struct {
	Menus []PublishMenu `json:"menus"`
}

// BuildPublishRequest prepares the full menu set for publishing, preserving
// menu order.
func BuildPublishRequest(menus []Menu) PublishRequest {
	out := PublishRequest{Menus: make([]PublishMenu, 0, len(menus))}
	for _, m := range menus {
		out.Menus = append(out.Menus, PublishMenu{
			MenuData:    BuildMenuPayload(m, menus),
			ImageBase64: m.ImageData,
			ImageURL:    m.ImageURL,
			AliasID:     DeriveAlias(m.ID),
			IsMain:      m.IsMain,
			MenuName:    m.Name,
		})
	}
	return out
}
