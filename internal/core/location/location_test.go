package location

import (
	"testing"

	perr "rollcall/internal/platform/errors"
)

func TestClassroom_Table(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "ipv4 last octet", in: "192.168.1.45", want: "Classroom 45"},
		{name: "ipv4 surrounding space", in: "  10.0.0.7 ", want: "Classroom 7"},
		{name: "ipv4 zero octet", in: "10.1.2.0", want: "Classroom 0"},
		{name: "ipv6 mapped hex keeps literal group", in: "::ffff:c0a8:012d", want: "Classroom 012d"},
		{name: "ipv6 full form", in: "2001:db8:0:0:0:0:2:1", want: "Classroom 1"},
		{name: "ipv6 upper case preserved", in: "2001:DB8::ABCD", want: "Classroom ABCD"},
		{name: "ipv6 zone dropped", in: "fe80::1ff:fe23:4567%eth0", want: "Classroom 4567"},
		{name: "ipv6 mapped dotted tail", in: "::ffff:192.168.1.45", want: "Classroom 192.168.1.45"},
		{name: "ipv6 trailing double colon", in: "fe80::", want: Unknown},
		{name: "empty", in: "", want: Unknown},
		{name: "blank", in: "   ", want: Unknown},
		{name: "not an address", in: "not-an-address", want: Unknown},
		{name: "placeholder from platform", in: "N/A", want: Unknown},
		{name: "ipv4 too few octets", in: "192.168.1", want: Unknown},
		{name: "ipv4 octet out of range", in: "192.168.1.300", want: Unknown},
		{name: "colons but garbage", in: "a:b:c:zz", want: Unknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classroom(tc.in); got != tc.want {
				t.Fatalf("Classroom(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestClassroom_Deterministic(t *testing.T) {
	for range 3 {
		if got := Classroom("172.16.4.19"); got != "Classroom 19" {
			t.Fatalf("Classroom = %q", got)
		}
	}
}

func TestSegment_MalformedCode(t *testing.T) {
	for _, in := range []string{"", "nope", "1.2.3", "::zz"} {
		_, err := Segment(in)
		if err == nil {
			t.Fatalf("Segment(%q) expected error", in)
		}
		if !perr.IsCode(err, perr.ErrorCodeMalformedAddress) {
			t.Fatalf("Segment(%q) code = %v, want MalformedAddress", in, perr.CodeOf(err))
		}
	}
}

func TestSegment_OK(t *testing.T) {
	seg, err := Segment("192.168.1.45")
	if err != nil || seg != "45" {
		t.Fatalf("Segment ipv4 = %q, %v", seg, err)
	}
	seg, err = Segment("::ffff:c0a8:012d")
	if err != nil || seg != "012d" {
		t.Fatalf("Segment ipv6 = %q, %v", seg, err)
	}
}
