package main

import (
	"github.com/fatih/color"
)

var (
	brand  = color.New(color.FgHiGreen, color.Bold)
	subtle = color.New(color.FgHiBlack)
	warn   = color.New(color.FgYellow)
	info   = color.New(color.FgCyan)
	good   = color.New(color.FgGreen)
	bad    = color.New(color.FgRed)
)
