package dwd

import (
	"errors"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIP(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"192.168.1.1", "192.168.1.1", true},
		{"203.0.113.7\n", "203.0.113.7", true},
		{"  2001:db8::1 ", "2001:db8::1", true},
		{"::1", "::1", true},
		{"::ffff:198.51.100.2", "198.51.100.2", true},
		{"256.1.1.1", "", false},
		{"1.2.3", "", false},
		{"not-an-ip", "", false},
		{"", "", false},
		{"fe80::1%eth0", "", false},
		{"192.168.1.1/24", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseIP(tt.in)
			if !tt.ok {
				var invalid *InvalidAddressError
				require.True(t, errors.As(err, &invalid), "expected InvalidAddressError, got %v", err)
				assert.Equal(t, tt.in, invalid.Raw)
				assert.False(t, got.IsValid())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, netip.MustParseAddr(tt.want), got)
		})
	}
}

func TestRecordType(t *testing.T) {
	v4 := netip.MustParseAddr("203.0.113.7")
	v6 := netip.MustParseAddr("2001:db8::1")

	assert.Equal(t, "A", recordType(v4))
	assert.Equal(t, "AAAA", recordType(v6))
	assert.Equal(t, "AAAA", recordTypeOr("aaaa", v4))
	assert.Equal(t, "A", recordTypeOr("", v4))
}

func TestPublicAddress(t *testing.T) {
	addrs := []string{
		"127.0.0.1/8",
		"192.168.86.253/24",
		"fe80::2cc9:801b:3551:9a43/64",
		"fd64:9f44:fc30:0:b951:8b16:2812:a227/64",
		"203.0.113.7/24",
		"2001:db8::1/64",
	}

	got, err := publicAddress(addrs, false)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", got.String())

	got, err = publicAddress(addrs, true)
	require.NoError(t, err)
	assert.Equal(t, "2001:db8::1", got.String())

	got, err = publicAddress([]string{"198.51.100.9"}, false)
	require.NoError(t, err)
	assert.Equal(t, "198.51.100.9", got.String())

	_, err = publicAddress([]string{"10.0.0.1/8", "garbage"}, false)
	assert.Error(t, err)

	_, err = publicAddress(nil, true)
	assert.Error(t, err)
}
