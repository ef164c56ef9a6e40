package docstore

import "fmt"

func userKey(id string) []byte { return []byte("user:" + id) }

func linkKey(id string) []byte { return []byte("link:" + id) }

func ownerPrefix(owner string) []byte {
	return []byte("owner\x00" + owner + "\x00")
}

func ownerKey(owner string, createdNanos int64, id string) []byte {
	return append(ownerPrefix(owner), fmt.Sprintf("%020d\x00%s", createdNanos, id)...)
}

func urlPrefix(url string) []byte {
	return []byte("url\x00" + url + "\x00")
}

func urlKey(url, id string) []byte {
	return append(urlPrefix(url), id...)
}
