package dex

import "strings"

// AccessFlags are the access_flags of a class_def_item.
type AccessFlags uint32

const (
	AccPublic     AccessFlags = 0x1
	AccPrivate    AccessFlags = 0x2
	AccProtected  AccessFlags = 0x4
	AccStatic     AccessFlags = 0x8
	AccFinal      AccessFlags = 0x10
	AccInterface  AccessFlags = 0x200
	AccAbstract   AccessFlags = 0x400
	AccSynthetic  AccessFlags = 0x1000
	AccAnnotation AccessFlags = 0x2000
	AccEnum       AccessFlags = 0x4000
)

var accessFlagNames = []struct {
	flag AccessFlags
	name string
}{
	{AccPublic, "public"},
	{AccPrivate, "private"},
	{AccProtected, "protected"},
	{AccStatic, "static"},
	{AccFinal, "final"},
	{AccAbstract, "abstract"},
	{AccSynthetic, "synthetic"},
	{AccAnnotation, "annotation"},
	{AccInterface, "interface"},
	{AccEnum, "enum"},
}

func (a AccessFlags) IsPublic() bool {
	return a&AccPublic != 0
}

func (a AccessFlags) IsInterface() bool {
	return a&AccInterface != 0
}

// String renders a in Java modifier order, e.g. "public final".
func (a AccessFlags) String() string {
	names := []string{}
	for _, n := range accessFlagNames {
		if a&n.flag != 0 {
			names = append(names, n.name)
		}
	}

	return strings.Join(names, " ")
}
