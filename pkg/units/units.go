// Package units holds byte size constants.
package units

const (
	Kilobyte = 1000
	Kb       = Kilobyte
	Megabyte = Kilobyte * Kilobyte
	Mb       = Megabyte
	Gigabyte = Megabyte * Kilobyte
	Gb       = Gigabyte

	// binary units, used for the on-disk cap which is counted in MiB.
	Kibibyte = 1 << 10
	Mebibyte = Kibibyte << 10
	Gibibyte = Mebibyte << 10
)
