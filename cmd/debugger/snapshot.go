package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/dbgobj"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/frame"
)

// varFlags collects repeated -var flags describing the frame snapshot the
// expressions evaluate against.
type varFlags []string

func (v *varFlags) String() string { return strings.Join(*v, ",") }

func (v *varFlags) Set(value string) error {
	*v = append(*v, value)
	return nil
}

func (v varFlags) buildFrame() (*frame.Frame, error) {
	fr := frame.New("snapshot")
	for _, spec := range v {
		name, obj, err := parseVariable(spec)
		if err != nil {
			return nil, err
		}
		if err := fr.Define(name, obj); err != nil {
			return nil, err
		}
	}
	return fr, nil
}

// parseVariable reads one name=kind:value spec.
func parseVariable(spec string) (string, dbgobj.Object, error) {
	name, typed, ok := strings.Cut(spec, "=")
	if !ok {
		return "", nil, fmt.Errorf("invalid -var %q, expected name=kind:value", spec)
	}
	kind, raw, ok := strings.Cut(typed, ":")
	if !ok {
		return "", nil, fmt.Errorf("invalid -var %q, expected name=kind:value", spec)
	}

	obj, err := buildObject(kind, raw)
	if err != nil {
		return "", nil, fmt.Errorf("variable %s: %w", name, err)
	}
	return name, obj, nil
}

func buildObject(kind, raw string) (dbgobj.Object, error) {
	switch kind {
	case "bool":
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, err
		}
		return &dbgobj.Boolean{Value: v}, nil
	case "char":
		runes := []rune(raw)
		if len(runes) != 1 {
			return nil, fmt.Errorf("char value must be a single character, got %q", raw)
		}
		return dbgobj.NewPrimitive(dbgobj.Char(runes[0])), nil
	case "sbyte":
		v, err := strconv.ParseInt(raw, 10, 8)
		if err != nil {
			return nil, err
		}
		return dbgobj.NewPrimitive(int8(v)), nil
	case "byte":
		v, err := strconv.ParseUint(raw, 10, 8)
		if err != nil {
			return nil, err
		}
		return dbgobj.NewPrimitive(uint8(v)), nil
	case "short":
		v, err := strconv.ParseInt(raw, 10, 16)
		if err != nil {
			return nil, err
		}
		return dbgobj.NewPrimitive(int16(v)), nil
	case "ushort":
		v, err := strconv.ParseUint(raw, 10, 16)
		if err != nil {
			return nil, err
		}
		return dbgobj.NewPrimitive(uint16(v)), nil
	case "int":
		v, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return nil, err
		}
		return dbgobj.NewPrimitive(int32(v)), nil
	case "uint":
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return nil, err
		}
		return dbgobj.NewPrimitive(uint32(v)), nil
	case "long":
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		return dbgobj.NewPrimitive(v), nil
	case "ulong":
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		return dbgobj.NewPrimitive(v), nil
	case "float":
		v, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return nil, err
		}
		return dbgobj.NewPrimitive(float32(v)), nil
	case "double":
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, err
		}
		return dbgobj.NewPrimitive(v), nil
	case "string":
		return &dbgobj.String{Value: raw}, nil
	}
	return nil, fmt.Errorf("unknown kind %q", kind)
}
