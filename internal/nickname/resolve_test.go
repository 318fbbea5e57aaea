package nickname

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lookaround/lookaround/internal/message"
)

func strPtr(s string) *string { return &s }

func TestResolve(t *testing.T) {
	known := message.MAC{1, 2, 3, 4, 5, 6}
	unknown := message.MAC{6, 5, 4, 3, 2, 1}

	overrides := map[message.MAC]string{
		known: "laptop",
	}

	tests := []struct {
		name      string
		mac       *message.MAC
		announced *string
		want      *string
	}{
		{name: "nothing known", mac: nil, announced: nil, want: nil},
		{name: "override fills gap", mac: &known, announced: nil, want: strPtr("laptop")},
		{name: "mac without override", mac: &unknown, announced: nil, want: nil},
		{name: "announced without mac", mac: nil, announced: strPtr("snowflake"), want: strPtr("snowflake")},
		{name: "announced beats override", mac: &known, announced: strPtr("snowflake"), want: strPtr("snowflake")},
		{name: "empty announced without mac", mac: nil, announced: strPtr(""), want: nil},
		{name: "empty announced falls back to override", mac: &known, announced: strPtr(""), want: strPtr("laptop")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(overrides, tt.mac, tt.announced))
		})
	}
}

func TestResolve_NilOverrides(t *testing.T) {
	mac := message.MAC{1, 2, 3, 4, 5, 6}
	assert.Nil(t, Resolve(nil, &mac, nil))
	assert.Nil(t, Resolve(nil, &mac, strPtr("")))
	assert.Equal(t, "desk", *Resolve(nil, &mac, strPtr("desk")))
}
