// Package utils holds small validation helpers shared by the kernel and
// its clients.
package utils
