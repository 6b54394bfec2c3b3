package gh

import (
	"fmt"
	"io"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// ParseIssues decodes the output of `gh issue list --json number,title,body,labels,url`.
// The payload must be a JSON array whose every element is an issue object
// with an integer number and a string title; anything else fails the whole batch.
func ParseIssues(data []byte) ([]Issue, error) {
	d := jx.DecodeBytes(data)
	if tt := d.Next(); tt != jx.Array {
		return nil, &ParseError{Index: -1, Reason: fmt.Sprintf("expected array, got %s", typeName(tt))}
	}

	issues := []Issue{}
	idx := 0
	err := d.Arr(func(d *jx.Decoder) error {
		issue, err := decodeIssue(d)
		if err != nil {
			return withIndex(err, idx)
		}
		issues = append(issues, issue)
		idx++
		return nil
	})
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			return nil, pe
		}
		return nil, &ParseError{Index: idx, Reason: "malformed JSON", Err: err}
	}

	// Only whitespace may follow the array.
	if err := d.Skip(); !errors.Is(err, io.EOF) {
		return nil, &ParseError{Index: -1, Reason: "unexpected data after array", Err: err}
	}
	return issues, nil
}

func decodeIssue(d *jx.Decoder) (Issue, error) {
	var issue Issue
	if tt := d.Next(); tt != jx.Object {
		return issue, &ParseError{Reason: fmt.Sprintf("expected object, got %s", typeName(tt))}
	}

	var hasNumber, hasTitle bool
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch field := string(key); field {
		case "number":
			if tt := d.Next(); tt != jx.Number {
				return fieldError(field, "number", tt)
			}
			n, err := d.Int()
			if err != nil {
				return &ParseError{Reason: `"number" is not an integer`, Err: err}
			}
			if n <= 0 {
				return &ParseError{Reason: fmt.Sprintf(`"number" must be positive, got %d`, n)}
			}
			issue.Number = n
			hasNumber = true
		case "title":
			if tt := d.Next(); tt != jx.String {
				return fieldError(field, "string", tt)
			}
			s, err := d.Str()
			if err != nil {
				return err
			}
			issue.Title = s
			hasTitle = true
		case "body":
			body, err := decodeOptionalString(d, field)
			if err != nil {
				return err
			}
			// gh reports a missing description as "".
			if body != "" {
				issue.Body = &body
			}
		case "url":
			url, err := decodeOptionalString(d, field)
			if err != nil {
				return err
			}
			issue.URL = url
		case "labels":
			labels, err := decodeLabels(d)
			if err != nil {
				return err
			}
			issue.Labels = labels
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return issue, err
	}

	switch {
	case !hasNumber:
		return issue, &ParseError{Reason: `missing "number"`}
	case !hasTitle:
		return issue, &ParseError{Reason: `missing "title"`}
	}
	return issue, nil
}

func decodeOptionalString(d *jx.Decoder, field string) (string, error) {
	switch tt := d.Next(); tt {
	case jx.Null:
		return "", d.Null()
	case jx.String:
		return d.Str()
	default:
		return "", fieldError(field, "string or null", tt)
	}
}

func decodeLabels(d *jx.Decoder) ([]Label, error) {
	switch tt := d.Next(); tt {
	case jx.Null:
		return nil, d.Null()
	case jx.Array:
	default:
		return nil, fieldError("labels", "array", tt)
	}

	labels := []Label{}
	err := d.Arr(func(d *jx.Decoder) error {
		if tt := d.Next(); tt != jx.Object {
			return fieldError("labels[]", "object", tt)
		}
		var (
			label   Label
			hasName bool
		)
		if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
			if string(key) != "name" {
				return d.Skip()
			}
			if tt := d.Next(); tt != jx.String {
				return fieldError("labels[].name", "string", tt)
			}
			s, err := d.Str()
			if err != nil {
				return err
			}
			label.Name = s
			hasName = true
			return nil
		}); err != nil {
			return err
		}
		if !hasName {
			return &ParseError{Reason: `label missing "name"`}
		}
		labels = append(labels, label)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return labels, nil
}

func fieldError(field, want string, got jx.Type) error {
	return &ParseError{Reason: fmt.Sprintf("%q: expected %s, got %s", field, want, typeName(got))}
}

// withIndex stamps idx onto a ParseError raised while decoding an element.
func withIndex(err error, idx int) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		pe.Index = idx
		return pe
	}
	return &ParseError{Index: idx, Reason: "malformed JSON", Err: err}
}

func typeName(t jx.Type) string {
	if t == jx.Invalid {
		return "no JSON value"
	}
	return t.String()
}
