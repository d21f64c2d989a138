// Package textutil sanitizes user-supplied names before they touch the
// filesystem: upload file names, request tokens and artifact stems.
package textutil
