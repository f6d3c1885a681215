package menu

import "fmt"

// ValidationError describes one publish blocker found in a menu.
type ValidationError struct {
	MenuName string `json:"menuName"`
	Field    string `json:"field"`
	Message  string `json:"message"`
}

// Field categories, matching the editor's inspector labels.
const (
	FieldImage   = "背景圖片"
	FieldBarText = "選單標題"
	FieldAction  = "動作設定"
)

// ValidateMenus runs the field-presence checks over the whole project. An
// empty result means the field category is publishable. The engine only
// classifies; it never mutates the menus.
func ValidateMenus(menus []Menu) []ValidationError {
	byID := make(map[string]struct{}, len(menus))
	for _, m := range menus {
		byID[m.ID] = struct{}{}
	}

	var errs []ValidationError
	for _, m := range menus {
		if !m.HasImage() {
			errs = append(errs, ValidationError{
				MenuName: m.Name,
				Field:    FieldImage,
				Message:  "尚未設定背景圖片",
			})
		}
		if m.BarText == "" {
			errs = append(errs, ValidationError{
				MenuName: m.Name,
				Field:    FieldBarText,
				Message:  "尚未設定選單標題文字",
			})
		}

		for i, h := range m.Hotspots {
			switch h.Action.Type {
			case ActionMessage:
				if h.Action.Data == "" {
					errs = append(errs, hotspotError(m, i, "訊息內容不可為空"))
				}
			case ActionURI:
				if h.Action.Data == "" {
					errs = append(errs, hotspotError(m, i, "連結網址不可為空"))
				}
			case ActionSwitch:
				if h.Action.Data == "" {
					errs = append(errs, hotspotError(m, i, "尚未選擇切換目標選單"))
					continue
				}
				// The UI prevents dangling targets; re-check anyway so a
				// stale draft cannot reach the payload builder's degrade
				// branch.
				if _, ok := byID[h.Action.Data]; !ok {
					errs = append(errs, hotspotError(m, i, "切換目標選單不存在"))
				} else if h.Action.Data == m.ID {
					errs = append(errs, hotspotError(m, i, "切換目標不可為選單本身"))
				}
			}
		}
	}
	return errs
}

// ValidateImages runs the image checks: size limit and pixel constraints.
// Independent of ValidateMenus; a menu may fail either or both categories.
func ValidateImages(menus []Menu) []ValidationError {
	var errs []ValidationError
	for _, m := range menus {
		if m.ImageData == "" {
			// URL-referenced images are checked at upload time by the image
			// store; menus without any image are ValidateMenus territory.
			continue
		}

		if !ValidateImageFileSize(m.ImageData) {
			errs = append(errs, ValidationError{
				MenuName: m.Name,
				Field:    FieldImage,
				Message:  "圖片大小超過 1MB 限制",
			})
		}

		data, err := DecodeBase64Image(m.ImageData)
		if err != nil {
			errs = append(errs, ValidationError{
				MenuName: m.Name,
				Field:    FieldImage,
				Message:  "圖片資料無法解析",
			})
			continue
		}
		w, h, err := ImageDimensions(data)
		if err != nil {
			errs = append(errs, ValidationError{
				MenuName: m.Name,
				Field:    FieldImage,
				Message:  "圖片格式無法辨識",
			})
			continue
		}
		if err := ValidateImageDimensions(w, h); err != nil {
			errs = append(errs, ValidationError{
				MenuName: m.Name,
				Field:    FieldImage,
				Message:  err.Error(),
			})
		}
	}
	return errs
}

func hotspotError(m Menu, index int, msg string) ValidationError {
	return ValidationError{
		MenuName: m.Name,
		Field:    FieldAction,
		Message:  fmt.Sprintf("熱點 %d: %s", index+1, msg),
	}
}
