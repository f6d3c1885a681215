package menu

import "strings"

// DeriveAlias maps a menu ID to its LINE rich menu alias. Aliases must be
// stable across republishes so switch actions keep working without tracking
// platform-assigned menu IDs; deriving them from the menu ID gives that for
// free. UUIDs are 36 chars, the alias limit is 32, so separators are
// stripped before capping.
func DeriveAlias(menuID string) string {
	alias := strings.NewReplacer("-", "", "_", "").Replace(menuID)
	if len(alias) > MaxAliasLength {
		alias = alias[:MaxAliasLength]
	}
	return alias
}
