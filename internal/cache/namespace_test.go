package cache

import "testing"

func TestParseLookup(t *testing.T) {
	tests := []struct {
		name    string
		res     interface{}
		want    Entry
		wantErr bool
	}{
		{
			name: "miss",
			res:  []interface{}{"3"},
			want: Entry{Generation: 3},
		},
		{
			name: "hit",
			res:  []interface{}{"7", "1"},
			want: Entry{Generation: 7, Value: "1", Found: true},
		},
		{
			name:    "not a list",
			res:     "oops",
			wantErr: true,
		},
		{
			name:    "empty list",
			res:     []interface{}{},
			wantErr: true,
		},
		{
			name:    "bad generation",
			res:     []interface{}{"x"},
			wantErr: true,
		},
		{
			name:    "generation wrong type",
			res:     []interface{}{int64(1)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLookup(tt.res)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLookup() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseLookup() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRedisNamespace_Keys(t *testing.T) {
	ns := NewRedisNamespace(nil, "gone")
	if got := ns.genKey(); got != "{gone}:gen" {
		t.Errorf("genKey() = %s, want {gone}:gen", got)
	}
	if got := ns.dataKey(12, "patterns"); got != "{gone}:12:patterns" {
		t.Errorf("dataKey() = %s, want {gone}:12:patterns", got)
	}
}
