package error

// Sentinel errors. Compare with errors.Is; instances are derived with With.
var (
	ErrSignatureSizing = &DBError{
		Code:     "SIGNATURE_SIZING",
		Category: ErrCategoryConfig,
		Message:  "signature width does not fit the page layout",
		Hint:     "choose a narrower page-signature or bit-slice width",
	}

	ErrInvalidParams = &DBError{
		Code:     "INVALID_PARAMS",
		Category: ErrCategoryConfig,
		Message:  "invalid relation parameters",
	}

	ErrRelationExists = &DBError{
		Code:     "RELATION_EXISTS",
		Category: ErrCategoryConfig,
		Message:  "relation already exists",
	}

	ErrSchemaMismatch = &DBError{
		Code:     "SCHEMA_MISMATCH",
		Category: ErrCategorySchema,
		Message:  "field count does not match the relation",
	}

	ErrEmptyQuery = &DBError{
		Code:     "EMPTY_QUERY",
		Category: ErrCategorySchema,
		Message:  "query string is empty",
	}

	ErrInvalidTuple = &DBError{
		Code:     "INVALID_TUPLE",
		Category: ErrCategorySchema,
		Message:  "tuple cannot be stored",
	}

	ErrTupleTooLarge = &DBError{
		Code:     "TUPLE_TOO_LARGE",
		Category: ErrCategorySchema,
		Message:  "encoded tuple exceeds the relation's tuple size",
	}

	ErrBitSliceCapacity = &DBError{
		Code:     "BITSLICE_CAPACITY",
		Category: ErrCategoryResource,
		Message:  "data page beyond bit-slice row capacity",
		Hint:     "recreate the relation with a larger bit-slice width",
	}

	ErrPageFull = &DBError{
		Code:     "PAGE_FULL",
		Category: ErrCategoryResource,
		Message:  "no free slot on page",
	}

	ErrInsertIncomplete = &DBError{
		Code:     "INSERT_INCOMPLETE",
		Category: ErrCategoryResource,
		Message:  "insertion aborted after the data file was written",
		Hint:     "signature files may be out of step with the data file; rebuild the relation",
	}

	ErrRelationMissing = &DBError{
		Code:     "RELATION_MISSING",
		Category: ErrCategoryIO,
		Message:  "relation file not found",
	}

	ErrShortIO = &DBError{
		Code:     "SHORT_IO",
		Category: ErrCategoryIO,
		Message:  "short read or write",
	}

	ErrCorruptMetadata = &DBError{
		Code:     "CORRUPT_METADATA",
		Category: ErrCategoryData,
		Message:  "relation metadata is corrupt",
	}

	ErrCorruptState = &DBError{
		Code:     "CORRUPT_STATE",
		Category: ErrCategoryData,
		Message:  "storage invariant violated",
	}
)
