package runtime

import "testing"

func TestAddress(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		addr Address
		want string
	}{
		"hostname": {addr: Address{Host: "localhost", Port: 8080}, want: "http://localhost:8080"},
		"alias":    {addr: Address{Host: "lorisgate", Port: 8080}, want: "http://lorisgate:8080"},
		"ipv6":     {addr: Address{Host: "::1", Port: 32768}, want: "http://[::1]:32768"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if got := tc.addr.URL(); got != tc.want {
				t.Errorf("URL() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestContainer_HostPort(t *testing.T) {
	t.Parallel()

	c := Container{Ports: map[int]int{8080: 32768, 9000: 0}}

	if p, ok := c.HostPort(8080); !ok || p != 32768 {
		t.Errorf("HostPort(8080) = %d, %v, want 32768, true", p, ok)
	}
	if _, ok := c.HostPort(9000); ok {
		t.Error("HostPort(9000) reported an unpublished port")
	}
	if _, ok := c.HostPort(1234); ok {
		t.Error("HostPort(1234) reported an unknown port")
	}
}
