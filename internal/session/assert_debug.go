//go:build beatdebug

package session

const debugAssertions = true
