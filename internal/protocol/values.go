package protocol

// ParseValues returns the node id to raw value map of every populated leaf
// item in a values reply, at any depth.
func ParseValues(body []byte) (map[string]string, error) {
	root, err := parseDocument(body)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	collectValues(root.children, out)
	return out, nil
}

func collectValues(nodes []*node, out map[string]string) {
	for _, n := range nodes {
		if !isItem(n) {
			continue
		}
		id, _ := n.attr("id")
		if v := n.child("value"); v != nil {
			out[id] = v.textContent()
			continue
		}
		collectValues(n.children, out)
	}
}
