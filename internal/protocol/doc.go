// Package protocol implements the controller's text protocol.
//
// The controller serves a websocket on port 8214 that only accepts the
// "Lux_WS" sub-protocol. The client sends short text commands and the
// controller answers with XML documents:
//
//	LOGIN;0        -> <Navigation id="..."><item id="0x..."><name>...</name></item>...</Navigation>
//	GET;<address>  -> <Content><item id="0x..."><name>Temperaturen</name><item ...>...</item></item>...</Content>
//	REFRESH        -> <values><item id="0x..."><value>29.5°C</value></item>...</values>
//
// A Navigation reply lists the pages of the information menu; the id of its
// first entry is the address of the data set to select. A Content reply
// describes the selected page as a tree of items, each with a localized
// name and either a value (a leaf) or nested items (a group). A values
// reply repeats the item ids with fresh values and no names.
//
// # Parsing
//
// Replies are classified by their opening tag with Classify, then parsed
// with ParseNavigation, ParseContent or ParseValues. Decode combines the
// two and returns a typed Message.
//
// ParseContent resolves every item's label through a Resolver and decodes
// leaf values. Items whose label is unknown, or whose value does not decode,
// are skipped and reported; a group whose children were all skipped is
// dropped. Only a document that is not well-formed XML fails as a whole,
// with ErrMalformed.
//
// # Thread Safety
//
// All functions are stateless and safe for concurrent use.
package protocol
