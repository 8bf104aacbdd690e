package contentstream

import (
	"errors"
	"fmt"
	"io"

	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/semantic"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/scanner"
)

// Parse tokenizes content stream bytes into a sequence of operations.
// Inline images (BI..EI) are not supported; they are rare in the documents
// this engine handles and would need their own payload scanning.
func Parse(data []byte) ([]semantic.Operation, error) {
	s := scanner.NewBytes(data, scanner.Config{})
	var ops []semantic.Operation
	var operands []semantic.Operand

	for {
		tok, err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case scanner.TokenKeyword:
			op, _ := tok.Value.(string)
			ops = append(ops, semantic.Operation{Operator: op, Operands: operands})
			operands = nil
		case scanner.TokenName:
			v, _ := tok.Value.(string)
			operands = append(operands, semantic.NameOperand{Value: v})
		case scanner.TokenNumber:
			operands = append(operands, semantic.NumberOperand{Value: numberValue(tok.Value)})
		case scanner.TokenString:
			b, _ := tok.Value.([]byte)
			operands = append(operands, semantic.StringOperand{Value: b})
		case scanner.TokenBoolean:
			// Booleans only appear inside dict operands in practice; at the
			// top level they carry no geometry, so fold them into a name.
			operands = append(operands, semantic.NameOperand{Value: fmt.Sprintf("%v", tok.Value)})
		case scanner.TokenNull:
			operands = append(operands, semantic.NameOperand{Value: "null"})
		case scanner.TokenArray:
			arr, err := parseArrayOperand(s)
			if err != nil {
				return nil, err
			}
			operands = append(operands, arr)
		case scanner.TokenDict:
			dict, err := parseDictOperand(s)
			if err != nil {
				return nil, err
			}
			operands = append(operands, dict)
		default:
			return nil, fmt.Errorf("unexpected token in content stream at offset %d", tok.Pos)
		}
	}
	if len(operands) > 0 {
		return nil, errors.New("content stream ends with dangling operands")
	}
	return ops, nil
}

func parseArrayOperand(s scanner.Scanner) (semantic.ArrayOperand, error) {
	arr := semantic.ArrayOperand{}
	for {
		tok, err := s.Next()
		if err != nil {
			return arr, fmt.Errorf("unterminated array operand: %w", err)
		}
		switch tok.Type {
		case scanner.TokenKeyword:
			if tok.Value == "]" {
				return arr, nil
			}
			return arr, fmt.Errorf("unexpected keyword %v in array operand", tok.Value)
		case scanner.TokenNumber:
			arr.Values = append(arr.Values, semantic.NumberOperand{Value: numberValue(tok.Value)})
		case scanner.TokenString:
			b, _ := tok.Value.([]byte)
			arr.Values = append(arr.Values, semantic.StringOperand{Value: b})
		case scanner.TokenName:
			v, _ := tok.Value.(string)
			arr.Values = append(arr.Values, semantic.NameOperand{Value: v})
		case scanner.TokenArray:
			inner, err := parseArrayOperand(s)
			if err != nil {
				return arr, err
			}
			arr.Values = append(arr.Values, inner)
		case scanner.TokenDict:
			inner, err := parseDictOperand(s)
			if err != nil {
				return arr, err
			}
			arr.Values = append(arr.Values, inner)
		default:
			return arr, errors.New("unsupported token in array operand")
		}
	}
}

func parseDictOperand(s scanner.Scanner) (semantic.DictOperand, error) {
	dict := semantic.DictOperand{Values: make(map[string]semantic.Operand)}
	for {
		tok, err := s.Next()
		if err != nil {
			return dict, fmt.Errorf("unterminated dict operand: %w", err)
		}
		if tok.Type == scanner.TokenKeyword && tok.Value == ">>" {
			return dict, nil
		}
		if tok.Type != scanner.TokenName {
			return dict, errors.New("expected name key in dict operand")
		}
		key, _ := tok.Value.(string)

		val, err := s.Next()
		if err != nil {
			return dict, fmt.Errorf("unterminated dict operand: %w", err)
		}
		switch val.Type {
		case scanner.TokenNumber:
			dict.Values[key] = semantic.NumberOperand{Value: numberValue(val.Value)}
		case scanner.TokenString:
			b, _ := val.Value.([]byte)
			dict.Values[key] = semantic.StringOperand{Value: b}
		case scanner.TokenName:
			v, _ := val.Value.(string)
			dict.Values[key] = semantic.NameOperand{Value: v}
		case scanner.TokenArray:
			inner, err := parseArrayOperand(s)
			if err != nil {
				return dict, err
			}
			dict.Values[key] = inner
		case scanner.TokenDict:
			inner, err := parseDictOperand(s)
			if err != nil {
				return dict, err
			}
			dict.Values[key] = inner
		default:
			return dict, errors.New("unsupported value in dict operand")
		}
	}
}

func numberValue(v interface{}) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}
