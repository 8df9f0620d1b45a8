package browser

import "context"

// Page is the minimal surface the sync pipeline needs from a live browser
// page. The provider UI has no stable DOM contract, so the interface leans on
// visible text and text-matched affordances instead of selectors wherever it
// can. Keeping this an interface lets the login state machine and the
// extractor run against synthetic pages in tests.
type Page interface {
	// Navigate loads the given URL and waits for the page to settle
	Navigate(ctx context.Context, url string) error

	// Location returns the current page URL
	Location(ctx context.Context) (string, error)

	// WaitVisible blocks until the selector is visible
	WaitVisible(ctx context.Context, selector string) error

	// Fill types value into the first element matching selector
	Fill(ctx context.Context, selector, value string) error

	// Click clicks the first element matching selector
	Click(ctx context.Context, selector string) error

	// ClickByText clicks the first visible button/link whose text contains
	// any of the given labels (case-insensitive). Returns false when no
	// such affordance exists; that is not an error.
	ClickByText(ctx context.Context, labels []string) (bool, error)

	// EnterPin types a confirmation code into either N single-digit inputs
	// or one combined input, whichever the page renders. Returns false when
	// no suitable input is found.
	EnterPin(ctx context.Context, code string) (bool, error)

	// VisibleText returns all rendered text of the current view as one
	// string, in layout order
	VisibleText(ctx context.Context) (string, error)

	// Screenshot captures the current viewport as PNG
	Screenshot(ctx context.Context) ([]byte, error)
}
