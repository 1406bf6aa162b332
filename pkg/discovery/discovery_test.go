package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInstance(t *testing.T) {
	tests := []struct {
		value   string
		want    ServiceInstance
		baseURL string
	}{
		{"10.0.0.4:5000", ServiceInstance{Name: "ordering-api", Host: "10.0.0.4", Port: 5000}, "http://10.0.0.4:5000"},
		{"https://api.local:443/api", ServiceInstance{Name: "ordering-api", Host: "api.local", Port: 443, Scheme: "https", Path: "/api"}, "https://api.local:443/api"},
		{"api.local:5000/api", ServiceInstance{Name: "ordering-api", Host: "api.local", Port: 5000, Path: "/api"}, "http://api.local:5000/api"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			inst, err := ParseInstance("ordering-api", tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *inst)
			assert.Equal(t, tt.baseURL, inst.BaseURL())
		})
	}
}

func TestParseInstance_Invalid(t *testing.T) {
	_, err := ParseInstance("ordering-api", "no-port")
	assert.Error(t, err)

	_, err = ParseInstance("ordering-api", "host:abc")
	assert.Error(t, err)
}

func TestInstanceValueRoundTrip(t *testing.T) {
	kiosk := &ServiceInstance{Name: "kiosk", Host: "0.0.0.0", Port: 8080}
	assert.Equal(t, "0.0.0.0:8080", kiosk.Value())
	assert.Equal(t, "/tableorder/kiosk/0.0.0.0:8080", instanceKey("/tableorder/", kiosk))

	parsed, err := ParseInstance("kiosk", kiosk.Value())
	require.NoError(t, err)
	assert.Equal(t, kiosk, parsed)
}
