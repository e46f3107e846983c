package rule

import (
	"reflect"
	"testing"

	json "github.com/goccy/go-json"
)

func TestChainStep_Marshal(t *testing.T) {
	tests := []struct {
		name string
		step ChainStep
		want string
	}{
		{"string value", ChainStep{Parser: "css", Param: "a", Value: "@href"}, `["css","a","@href"]`},
		{"empty value", NewChainStep("re", `\d+`), `["re","\\d+",""]`},
		{"nil value", ChainStep{Parser: "css", Param: "a"}, `["css","a",""]`},
		{"structured value", ChainStep{Parser: "udf", Param: "input", Value: map[string]any{"k": float64(1)}}, `["udf","input",{"k":1}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.step)
			if err != nil {
				t.Fatalf("marshal failed: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("marshal = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestChainStep_Unmarshal(t *testing.T) {
	var s ChainStep
	if err := json.Unmarshal([]byte(`["css","a","@href"]`), &s); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	want := ChainStep{Parser: "css", Param: "a", Value: "@href"}
	if !reflect.DeepEqual(s, want) {
		t.Errorf("unmarshal = %+v, want %+v", s, want)
	}

	// Two-element steps get an empty value.
	if err := json.Unmarshal([]byte(`["python","getitem"]`), &s); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if s.Value != "" {
		t.Errorf("two-element value = %#v, want empty string", s.Value)
	}

	// An explicit null value normalizes to an empty string too.
	if err := json.Unmarshal([]byte(`["python","getitem",null]`), &s); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if s.Value != "" {
		t.Errorf("null value = %#v, want empty string", s.Value)
	}
}

func TestChainStep_UnmarshalErrors(t *testing.T) {
	bad := []string{
		`"not an array"`,
		`["only-parser"]`,
		`["a","b","c","d"]`,
		`[1,"b","c"]`,
		`["a",2,"c"]`,
	}
	for _, doc := range bad {
		var s ChainStep
		if err := json.Unmarshal([]byte(doc), &s); err == nil {
			t.Errorf("unmarshal %s should fail", doc)
		}
	}
}
