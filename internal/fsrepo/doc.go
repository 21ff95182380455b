// package fsrepo implements models.Repository on a directory of text and YAML files.
//
// Lyrics are stored as <id>.txt with a YAML front matter title, playlists as <id>.yaml.
// A single worker goroutine owns the directory. Successful mutations are appended to
// .transaction.log before their reply is sent, and the log is replayed when the repository is opened.
package fsrepo
