// Package snapshot holds the latest measurement tree read from the
// controller.
//
// A Tree is an arena: items live in one slice and refer to their parent and
// children by index. Items are appended in depth-first order while a content
// reply is parsed, which keeps sibling order and lets an empty subtree be
// discarded by truncating the arena. The category of an item is derived by
// walking parent indices and is never stored.
//
// A Store publishes one Tree to concurrent readers. A content reply
// replaces the tree wholesale; a values reply is merged into it in place,
// touching leaf values only.
package snapshot
