package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-books/internal/app"
	_ "github.com/odyssey-erp/odyssey-books/testing"
)

func TestMainReturnsBeforeStartupInTestMode(t *testing.T) {
	require.True(t, app.InTestMode())
	main()
}
