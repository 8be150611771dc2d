//go:build gocv

package main

import _ "github.com/wudi/platekit/opencv"
