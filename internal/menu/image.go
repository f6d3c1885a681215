package menu

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
)

// DecodeBase64Image returns the raw bytes of a base64 image, accepting both
// bare base64 and "data:image/png;base64," prefixed strings.
func DecodeBase64Image(s string) ([]byte, error) {
	if i := strings.Index(s, ","); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode base64 image: %w", err)
	}
	return data, nil
}

// ImageDimensions reads the pixel size from the image header without
// decoding the full image.
func ImageDimensions(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// ValidateImageDimensions checks pixel size against the platform's hard
// constraints for rich menu images.
func ValidateImageDimensions(width, height int) error {
	if width < MinImageWidth || width > MaxImageWidth {
		return fmt.Errorf("圖片寬度 %dpx 超出範圍 (%d-%dpx)", width, MinImageWidth, MaxImageWidth)
	}
	if height < MinImageHeight {
		return fmt.Errorf("圖片高度 %dpx 低於下限 (%dpx)", height, MinImageHeight)
	}
	if ratio := float64(width) / float64(height); ratio < MinAspectRatio {
		return fmt.Errorf("圖片長寬比 %.2f 低於下限 (%.2f)", ratio, MinAspectRatio)
	}
	return nil
}

// ValidateImageFileSize reports whether a base64 image fits the 1MB limit.
// Base64 length * 3/4 approximates the decoded size closely enough here.
func ValidateImageFileSize(b64 string) bool {
	if i := strings.Index(b64, ","); i >= 0 && strings.HasPrefix(b64, "data:") {
		b64 = b64[i+1:]
	}
	return len(b64)*3/4 <= MaxImageBytes
}
