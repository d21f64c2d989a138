// Package notifications announces finished karaoke requests.
//
// The default implementation posts to an ntfy topic URL taken from the
// [notifications] section and degrades to a no-op when no topic is set. The
// workflow manager depends only on the Service interface.
package notifications
