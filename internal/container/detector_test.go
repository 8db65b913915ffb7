package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const testID = "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2"

func TestShortID(t *testing.T) {
	assert.Equal(t, testID[:12], ShortID(testID))
	assert.Equal(t, "abc", ShortID("abc"))
}

func TestInfoString(t *testing.T) {
	info := Info{ID: testID, Name: "regtest-node", Runtime: "podman"}
	assert.Equal(t, "podman container regtest-node", info.String())

	noName := Info{ID: testID, Runtime: "docker"}
	assert.Equal(t, "docker container "+testID[:12], noName.String())
}
