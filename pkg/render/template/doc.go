// Package template defines the engine contract HTML renderers rely on, plus
// small markup helpers shared by engine adapters.
package template
