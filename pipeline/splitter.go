package pipeline

func NewTextChannelSplitter(n int) func(in <-chan string) []chan string {

	return func(in <-chan string) []chan string {
		outs := make([]chan string, n)
		// init channels
		for i := 0; i < n; i++ {
			outs[i] = make(chan string, 1)
		}

		go func() {
			defer closeAllChannels(outs)
			// chunks keep their order on every output
			for text := range in {
				for _, out := range outs {
					out <- text
				}
			}
		}()
		return outs
	}
}

func closeAllChannels(outs []chan string) {
	for _, out := range outs {
		close(out)
	}
}
