package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShellTable(t *testing.T) {
	shells := DefaultShells()
	cases := []struct {
		refs []string
		want string
	}{
		{[]string{"ubuntu:22.04"}, "/bin/bash"},
		{[]string{"docker.io/library/debian:bookworm"}, "/bin/bash"},
		{[]string{"registry.example.com/base/fedora"}, "/bin/bash"},
		{[]string{"alpine:3.20"}, "/bin/sh"},
		{[]string{"busybox"}, "/bin/sh"},
		{[]string{"sha256:4b1f", "ubuntu"}, "/bin/bash"},
		{[]string{"Not A Reference"}, "/bin/sh"},
		{nil, "/bin/sh"},
	}
	for _, tc := range cases {
		assert.Equal(t, []string{tc.want}, shells.For(tc.refs...), "%v", tc.refs)
	}
}

func TestTextDecoderCarriesSplitRunes(t *testing.T) {
	var d textDecoder
	snow := []byte("☃") // 3 bytes

	assert.Equal(t, "a", d.decode(append([]byte("a"), snow[:1]...)))
	assert.Equal(t, "", d.decode(snow[1:2]))
	assert.Equal(t, "☃b", d.decode(append(snow[2:], 'b')))
}

func TestTextDecoderDropsInvalidBytes(t *testing.T) {
	var d textDecoder
	assert.Equal(t, "ok", d.decode([]byte{'o', 0xff, 'k'}))
	assert.Equal(t, "x", d.decode([]byte{'x', 0xff}))
	assert.Empty(t, d.pending)
}
