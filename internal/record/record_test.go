package record

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Record
	}{
		{
			name: "single EA record",
			line: "1024,5,3,EA,1,90,0.12,0.15,0.14",
			want: Record{
				Timestamp:      1024,
				PacketNumber:   5,
				DataPointCount: 3,
				TypeTag:        "EA",
				Version:        1,
				Reliability:    90,
				Payload:        []float64{0.12, 0.15, 0.14},
			},
		},
		{
			name: "trailing newline",
			line: "2048,6,1,HR,3,100,72.5\n",
			want: Record{
				Timestamp:      2048,
				PacketNumber:   6,
				DataPointCount: 1,
				TypeTag:        "HR",
				Version:        3,
				Reliability:    100,
				Payload:        []float64{72.5},
			},
		},
		{
			name: "CRLF line ending",
			line: "100,1,2,AX,2,0,-0.98,0.02\r\n",
			want: Record{
				Timestamp:      100,
				PacketNumber:   1,
				DataPointCount: 2,
				TypeTag:        "AX",
				Version:        2,
				Reliability:    0,
				Payload:        []float64{-0.98, 0.02},
			},
		},
		{
			name: "trailing comma dropped before arity check",
			line: "1024,5,3,EA,1,90,0.12,0.15,0.14,",
			want: Record{
				Timestamp:      1024,
				PacketNumber:   5,
				DataPointCount: 3,
				TypeTag:        "EA",
				Version:        1,
				Reliability:    90,
				Payload:        []float64{0.12, 0.15, 0.14},
			},
		},
		{
			name: "zero datapoints with empty payload cell",
			line: "1024,5,0,EM,1,100,",
			want: Record{
				Timestamp:      1024,
				PacketNumber:   5,
				DataPointCount: 0,
				TypeTag:        "EM",
				Version:        1,
				Reliability:    100,
				Payload:        []float64{},
			},
		},
		{
			name: "unknown tag is preserved",
			line: "1,2,1,ZZ,1,50,9.9",
			want: Record{
				Timestamp:      1,
				PacketNumber:   2,
				DataPointCount: 1,
				TypeTag:        "ZZ",
				Version:        1,
				Reliability:    50,
				Payload:        []float64{9.9},
			},
		},
		{
			name: "reliability outside 0-100 passes through unmodified",
			line: "1,2,1,EA,1,255,0.5",
			want: Record{
				Timestamp:      1,
				PacketNumber:   2,
				DataPointCount: 1,
				TypeTag:        "EA",
				Version:        1,
				Reliability:    255,
				Payload:        []float64{0.5},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.line)
			if err != nil {
				t.Fatalf("Decode(%q) returned error: %v", tt.line, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Decode(%q) mismatch (-want +got):\n%s", tt.line, diff)
			}
		})
	}
}

func TestDecodeIdempotent(t *testing.T) {
	const line = "1024,5,3,EA,1,90,0.12,0.15,0.14"
	first, err := Decode(line)
	if err != nil {
		t.Fatalf("first Decode failed: %v", err)
	}
	second, err := Decode(line)
	if err != nil {
		t.Fatalf("second Decode failed: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated Decode not structurally equal (-first +second):\n%s", diff)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		// exactly one of the following is checked
		wantEmptyLine bool
		wantMalformed string // expected Field
		wantArity     *ArityMismatchError
	}{
		{
			name:          "empty line",
			line:          "",
			wantEmptyLine: true,
		},
		{
			name:          "six fields only",
			line:          "1024,5,0,EA,1,90",
			wantEmptyLine: true,
		},
		{
			name:          "non-numeric timestamp",
			line:          "boot,5,1,EA,1,90,0.12",
			wantMalformed: "timestamp",
		},
		{
			name:          "non-numeric packet number",
			line:          "1024,x,1,EA,1,90,0.12",
			wantMalformed: "packet_number",
		},
		{
			name:          "negative datapoint count",
			line:          "1024,5,-1,EA,1,90,0.12",
			wantMalformed: "datapoint_count",
		},
		{
			name:          "non-numeric version",
			line:          "1024,5,1,EA,v1,90,0.12",
			wantMalformed: "version",
		},
		{
			name:          "non-numeric reliability",
			line:          "1024,5,1,EA,1,high,0.12",
			wantMalformed: "reliability",
		},
		{
			name:          "non-numeric payload value",
			line:          "1024,5,2,EA,1,90,0.12,oops",
			wantMalformed: "payload",
		},
		{
			name:      "declared two found three",
			line:      "1024,5,2,EA,1,90,0.12,0.15,0.14",
			wantArity: &ArityMismatchError{Declared: 2, Actual: 3},
		},
		{
			name:      "declared three found two",
			line:      "1024,5,3,EA,1,90,0.12,0.15",
			wantArity: &ArityMismatchError{Declared: 3, Actual: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.line)
			if err == nil {
				t.Fatalf("Decode(%q) succeeded, want error", tt.line)
			}
			switch {
			case tt.wantEmptyLine:
				if !errors.Is(err, ErrEmptyLine) {
					t.Errorf("Decode(%q) = %v, want ErrEmptyLine", tt.line, err)
				}
			case tt.wantMalformed != "":
				var mf *MalformedFieldError
				if !errors.As(err, &mf) {
					t.Fatalf("Decode(%q) = %v, want MalformedFieldError", tt.line, err)
				}
				if mf.Field != tt.wantMalformed {
					t.Errorf("malformed field = %q, want %q", mf.Field, tt.wantMalformed)
				}
			case tt.wantArity != nil:
				var am *ArityMismatchError
				if !errors.As(err, &am) {
					t.Fatalf("Decode(%q) = %v, want ArityMismatchError", tt.line, err)
				}
				if am.Declared != tt.wantArity.Declared || am.Actual != tt.wantArity.Actual {
					t.Errorf("arity mismatch = %+v, want %+v", am, tt.wantArity)
				}
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	lines := []string{
		"1024,5,3,EA,1,90,0.12,0.15,0.14",
		"2048,6,1,HR,3,100,72.5",
		"0,1,4,AX,2,0,-0.98,0.02,1,-1",
		"99,7,1,ZZ,1,50,3.14159",
		"1024,5,0,EM,1,100,", // empty payload keeps its seventh field
	}
	for _, line := range lines {
		rec, err := Decode(line)
		if err != nil {
			t.Fatalf("Decode(%q) failed: %v", line, err)
		}
		again, err := Decode(rec.Encode())
		if err != nil {
			t.Fatalf("Decode(Encode()) of %q failed: %v", line, err)
		}
		if diff := cmp.Diff(rec, again); diff != "" {
			t.Errorf("round-trip of %q mismatch (-orig +again):\n%s", line, diff)
		}
	}
}

func TestEncodeWireForm(t *testing.T) {
	rec := Record{
		Timestamp:      1024,
		PacketNumber:   5,
		DataPointCount: 3,
		TypeTag:        "EA",
		Version:        1,
		Reliability:    90,
		Payload:        []float64{0.12, 0.15, 0.14},
	}
	want := "1024,5,3,EA,1,90,0.12,0.15,0.14"
	if got := rec.Encode(); got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}

	empty := Record{Timestamp: 1024, PacketNumber: 5, TypeTag: "EM", Version: 1, Reliability: 100}
	if got, want := empty.Encode(), "1024,5,0,EM,1,100,"; got != want {
		t.Errorf("Encode() of empty payload = %q, want %q", got, want)
	}
}

func TestLookup(t *testing.T) {
	label, ok := Lookup("EA")
	if !ok || label != "Electrodermal Activity" {
		t.Errorf("Lookup(EA) = %q, %v", label, ok)
	}
	if label, ok := Lookup("ZZ"); ok || label != "" {
		t.Errorf("Lookup(ZZ) = %q, %v, want empty and false", label, ok)
	}
}

func TestRecordLabel(t *testing.T) {
	rec, err := Decode("1,2,1,ZZ,1,50,9.9")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got := rec.Label(); got != "" {
		t.Errorf("Label() for unknown tag = %q, want empty", got)
	}
}

func TestERRetired(t *testing.T) {
	tests := []struct {
		version int
		want    bool
	}{
		{1, false},
		{2, false},
		{3, true},
		{4, true},
	}
	for _, tt := range tests {
		if got := ERRetired(tt.version); got != tt.want {
			t.Errorf("ERRetired(%d) = %v, want %v", tt.version, got, tt.want)
		}
	}
}

func TestKnownTagsSorted(t *testing.T) {
	tags := KnownTags()
	if len(tags) == 0 {
		t.Fatal("KnownTags returned no tags")
	}
	for i := 1; i < len(tags); i++ {
		if tags[i-1] >= tags[i] {
			t.Fatalf("KnownTags not sorted at %d: %q >= %q", i, tags[i-1], tags[i])
		}
	}
	for _, required := range []string{"EA", "ER", "HR", "MZ", "H0"} {
		if _, ok := Lookup(required); !ok {
			t.Errorf("required tag %q missing from table", required)
		}
	}
}
