package crawler

// syncDriver collects the directories a listing discovers so the walk loop
// can push them in order.
type syncDriver struct {
	w     *walker
	found []job
}

func (d *syncDriver) descend(j job) {
	d.found = append(d.found, j)
}

func (d *syncDriver) resolve(j job, name string, files *[]string) {
	resolved, info, ok := d.w.resolveLink(j, name)
	if !ok {
		return
	}
	d.w.linked(j, name, resolved, info, files, d)
}

// flush moves discovered directories onto stack so the first one found is
// walked next.
func (d *syncDriver) flush(stack []job) []job {
	for i := len(d.found) - 1; i >= 0; i-- {
		stack = append(stack, d.found[i])
	}
	d.found = d.found[:0]
	return stack
}

// walkSync walks depth first on the caller's goroutine.
func (w *walker) walkSync() (Output, error) {
	w.begin("sync")

	d := &syncDriver{w: w}
	stack := []job{w.rootJob()}

	for len(stack) > 0 && !w.st.halted() {
		j := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !w.claim(j) {
			continue
		}
		entries := w.list(j)
		if w.st.halted() {
			break
		}

		files := w.enter(j)
		for _, e := range entries {
			w.visit(j, e, files, d)
		}
		stack = d.flush(stack)
	}
	return w.finish()
}
