package sui

import (
	"fmt"
	"strings"
)

// TypeTag tags, in the order of the on-chain enum.
const (
	typeTagBool = iota
	typeTagU8
	typeTagU64
	typeTagU128
	typeTagAddress
	typeTagSigner
	typeTagVector
	typeTagStruct
	typeTagU16
	typeTagU32
	typeTagU256
)

var primitiveTypeTags = map[string]int{
	"bool":    typeTagBool,
	"u8":      typeTagU8,
	"u16":     typeTagU16,
	"u32":     typeTagU32,
	"u64":     typeTagU64,
	"u128":    typeTagU128,
	"u256":    typeTagU256,
	"address": typeTagAddress,
	"signer":  typeTagSigner,
}

// TypeTag is a parsed move type, ie: 0x2::coin::Coin<0x2::sui::SUI>
type TypeTag struct {
	Primitive  string // set for primitive types, else empty
	Vector     *TypeTag
	Address    Address
	Module     string
	Name       string
	TypeParams []TypeTag
}

func (t TypeTag) String() string {
	switch {
	case t.Primitive != "":
		return t.Primitive
	case t.Vector != nil:
		return "vector<" + t.Vector.String() + ">"
	}
	var out strings.Builder
	out.WriteString(fmt.Sprintf("%s::%s::%s", t.Address.String(), t.Module, t.Name))
	if len(t.TypeParams) > 0 {
		params := make([]string, len(t.TypeParams))
		for i, p := range t.TypeParams {
			params[i] = p.String()
		}
		out.WriteString("<" + strings.Join(params, ", ") + ">")
	}
	return out.String()
}

func ParseTypeTag(s string) (TypeTag, error) {
	tag, rest, err := parseTypeTag(strings.TrimSpace(s))
	if err != nil {
		return TypeTag{}, err
	}
	if strings.TrimSpace(rest) != "" {
		return TypeTag{}, fmt.Errorf("invalid type tag:%q, trailing data:%q", s, rest)
	}
	return tag, nil
}

func parseTypeTag(s string) (TypeTag, string, error) {
	s = strings.TrimLeft(s, " ")
	end := strings.IndexAny(s, "<>, ")
	if end == -1 {
		end = len(s)
	}
	head := s[:end]
	if _, ok := primitiveTypeTags[head]; ok {
		return TypeTag{Primitive: head}, s[end:], nil
	}
	if head == "vector" {
		if end >= len(s) || s[end] != '<' {
			return TypeTag{}, "", fmt.Errorf("invalid vector type:%q", s)
		}
		inner, rest, err := parseTypeTag(s[end+1:])
		if err != nil {
			return TypeTag{}, "", err
		}
		rest = strings.TrimLeft(rest, " ")
		if rest == "" || rest[0] != '>' {
			return TypeTag{}, "", fmt.Errorf("unterminated vector type:%q", s)
		}
		return TypeTag{Vector: &inner}, rest[1:], nil
	}
	parts := strings.Split(head, "::")
	if len(parts) != 3 {
		return TypeTag{}, "", fmt.Errorf("invalid struct type:%q", head)
	}
	addr, err := ParseAddress(parts[0])
	if err != nil {
		return TypeTag{}, "", err
	}
	tag := TypeTag{Address: addr, Module: parts[1], Name: parts[2]}
	rest := s[end:]
	if rest == "" || rest[0] != '<' {
		return tag, rest, nil
	}
	rest = rest[1:]
	for {
		var param TypeTag
		param, rest, err = parseTypeTag(rest)
		if err != nil {
			return TypeTag{}, "", err
		}
		tag.TypeParams = append(tag.TypeParams, param)
		rest = strings.TrimLeft(rest, " ")
		if rest == "" {
			return TypeTag{}, "", fmt.Errorf("unterminated type params:%q", s)
		}
		if rest[0] == ',' {
			rest = rest[1:]
			continue
		}
		if rest[0] == '>' {
			return tag, rest[1:], nil
		}
		return TypeTag{}, "", fmt.Errorf("invalid type params:%q", s)
	}
}

func (t TypeTag) bcsTag() bcsTypeTag {
	switch {
	case t.Vector != nil:
		inner := t.Vector.bcsTag()
		return bcsTypeTag{Vector: &inner}
	case t.Primitive == "":
		params := make([]bcsTypeTag, len(t.TypeParams))
		for i, p := range t.TypeParams {
			params[i] = p.bcsTag()
		}
		return bcsTypeTag{Struct: &bcsStructTag{Address: t.Address, Module: t.Module, Name: t.Name, TypeParams: params}}
	}
	var tag bcsTypeTag
	switch primitiveTypeTags[t.Primitive] {
	case typeTagBool:
		tag.Bool = &unit{}
	case typeTagU8:
		tag.U8 = &unit{}
	case typeTagU16:
		tag.U16 = &unit{}
	case typeTagU32:
		tag.U32 = &unit{}
	case typeTagU64:
		tag.U64 = &unit{}
	case typeTagU128:
		tag.U128 = &unit{}
	case typeTagU256:
		tag.U256 = &unit{}
	case typeTagAddress:
		tag.Address = &unit{}
	case typeTagSigner:
		tag.Signer = &unit{}
	}
	return tag
}

// SplitTarget splits a move call target of package::module::function.
func SplitTarget(target string) (Address, string, string, error) {
	parts := strings.Split(target, "::")
	if len(parts) != 3 {
		return Address{}, "", "", fmt.Errorf("invalid move call target:%q", target)
	}
	pkg, err := ParseAddress(parts[0])
	if err != nil {
		return Address{}, "", "", err
	}
	return pkg, parts[1], parts[2], nil
}
