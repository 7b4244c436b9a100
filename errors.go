package laptimes

// errorGroup returns the first non-nil error.
func errorGroup(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}
