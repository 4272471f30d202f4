package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    options
		wantErr bool
	}{
		{name: "defaults", args: nil, want: options{}},
		{name: "refresh", args: []string{"--refresh-seconds", "7"}, want: options{refreshSeconds: 7}},
		{name: "version", args: []string{"--version"}, want: options{version: true}},
		{name: "version shorthand", args: []string{"-v"}, want: options{version: true}},
		{name: "negative refresh", args: []string{"--refresh-seconds=-1"}, wantErr: true},
		{name: "stray argument", args: []string{"list"}, wantErr: true},
		{name: "unknown flag", args: []string{"--profile", "x"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFlags(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFlags_Help(t *testing.T) {
	_, err := parseFlags([]string{"-h"})
	assert.ErrorIs(t, err, flag.ErrHelp)
}
