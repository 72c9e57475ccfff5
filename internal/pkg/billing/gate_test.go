package billing

import "testing"

func TestVerifyNotificationToken(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
		ok   bool
	}{
		{name: "match", got: "s3cret", want: "s3cret", ok: true},
		{name: "match with padding", got: " s3cret ", want: "s3cret", ok: true},
		{name: "mismatch", got: "guess", want: "s3cret", ok: false},
		{name: "empty attempt", got: "", want: "s3cret", ok: false},
		{name: "unconfigured secret fails closed", got: "", want: "", ok: false},
		{name: "unconfigured secret rejects everything", got: "anything", want: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyNotificationToken(tt.got, tt.want); got != tt.ok {
				t.Fatalf("VerifyNotificationToken(%q, %q) = %v, want %v", tt.got, tt.want, got, tt.ok)
			}
		})
	}
}
