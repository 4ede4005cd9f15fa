/*
Package record implements a namespaced JSON record store on a storage.Port.

Records are JSON objects addressed by a logical identifier. The physical key
is the namespace prefix followed by the identifier; lookups collapse repeated
prefixes so that an identifier that was already prefixed still resolves.

Writes merge: Set adds or replaces top-level fields and keeps the rest. Del
removes named fields and Omit keeps only named fields. There is no way to
replace a record wholesale other than Remove followed by Set.

	store, err := record.New(record.Config{Port: origin.Attach()})
	if err != nil {
		return err
	}

	if err := store.Set("session", map[string]any{"year": "2017"}); err != nil {
		return err
	}

	rec, ok, err := store.Get("session")

Stored text that no longer decodes as an object is reported as
jstore.ErrCorruptRecord. A Store built without usable storage reports false
from IsSupported and fails every operation with jstore.ErrUnsupported.
*/
package record
