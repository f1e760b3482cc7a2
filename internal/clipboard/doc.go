// Package clipboard is the sink for the assembled wiki document.
//
// System copies text to the operating system clipboard through
// atotto/clipboard, which shells out to pbcopy, clip.exe, xclip, xsel or
// wl-copy. On a host without any of them WriteAll fails with ErrUnsupported.
//
// Memory implements the same Writer interface in process and can be told to
// fail, which is how the delivery step is tested.
package clipboard
