package scraper

// The provider renders everything as generic containers with generated class
// names, so the scripts below lean only on roles, aria attributes and URL
// shapes. Each concern has several variants; the Go side combines them as
// ordered fallback strategies.

// listingSnapshotScript serializes every listing card in the results feed.
// Fragments are direct-child text nodes plus leaf spans, the material the
// field classifiers run over.
const listingSnapshotScript = `
(() => {
	const feed = document.querySelector('div[role="feed"]');
	const scope = feed || document;
	const cards = Array.from(scope.querySelectorAll('div[role="article"]'));
	return cards.map(card => {
		const detail = card.querySelector('a[href*="/maps/place/"]') || card.querySelector('a[href]');
		const links = Array.from(card.querySelectorAll('a[href]')).map(a => {
			const siblings = a.parentElement
				? a.parentElement.querySelectorAll(':scope > a').length
				: 0;
			return {
				href: a.href,
				label: a.getAttribute('aria-label') || '',
				text: (a.innerText || '').trim(),
				cluster: siblings >= 2 && siblings <= 6
			};
		});
		const fragments = [];
		card.childNodes.forEach(n => {
			if (n.nodeType === Node.TEXT_NODE) {
				const t = n.textContent.trim();
				if (t) fragments.push(t);
			}
		});
		card.querySelectorAll('span').forEach(s => {
			if (s.children.length === 0) {
				const t = (s.innerText || '').trim();
				if (t) fragments.push(t);
			}
		});
		return {
			url: detail ? detail.href : '',
			label: detail
				? (detail.getAttribute('aria-label') || '')
				: (card.getAttribute('aria-label') || ''),
			fullText: card.innerText || '',
			fragments: fragments,
			links: links
		};
	});
})()
`

// anchorSnapshotScript is the degraded fallback when no article containers
// exist at all: raw place-detail anchors, name and URL only.
const anchorSnapshotScript = `
(() => {
	const seen = {};
	const out = [];
	document.querySelectorAll('a[href*="/maps/place/"]').forEach(a => {
		if (seen[a.href]) return;
		seen[a.href] = true;
		out.push({
			url: a.href,
			label: a.getAttribute('aria-label') || (a.innerText || '').trim(),
			fullText: '',
			fragments: [],
			links: []
		});
	});
	return out;
})()
`

// Feed count probes, in priority order.
var feedCountScripts = []string{
	`document.querySelectorAll('div[role="feed"] div[role="article"]').length`,
	`document.querySelectorAll('div[role="article"]').length`,
	`(() => {
		const seen = {};
		document.querySelectorAll('a[href*="/maps/place/"]').forEach(a => { seen[a.href] = true; });
		return Object.keys(seen).length;
	})()`,
}

// Feed scroll strategies: known feed container, walk up from a known content
// element, then any tall scrollable element containing the content marker.
var feedScrollScripts = []string{
	`(() => {
		const el = document.querySelector('div[role="feed"]');
		if (!el) return false;
		el.scrollTop = el.scrollHeight;
		return true;
	})()`,
	`(() => {
		let el = document.querySelector('a[href*="/maps/place/"]');
		while (el && el.scrollHeight <= el.clientHeight + 1) el = el.parentElement;
		if (!el || el === document.documentElement) return false;
		el.scrollTop = el.scrollHeight;
		return true;
	})()`,
	`(() => {
		const all = document.querySelectorAll('div');
		for (const el of all) {
			const style = window.getComputedStyle(el);
			if ((style.overflowY === 'auto' || style.overflowY === 'scroll')
				&& el.clientHeight > 200
				&& el.querySelector('a[href*="/maps/place/"]')) {
				el.scrollTop = el.scrollHeight;
				return true;
			}
		}
		return false;
	})()`,
}

var feedHeightScripts = []string{
	`(() => {
		const el = document.querySelector('div[role="feed"]');
		return el ? el.scrollHeight : -1;
	})()`,
	`(() => {
		let el = document.querySelector('a[href*="/maps/place/"]');
		while (el && el.scrollHeight <= el.clientHeight + 1) el = el.parentElement;
		return el ? el.scrollHeight : -1;
	})()`,
}

const feedEndScript = `
(() => {
	const feed = document.querySelector('div[role="feed"]');
	const text = feed ? feed.innerText : document.body.innerText;
	return /reached the end of the list/i.test(text);
})()
`

// botDefenseScript spots the provider's explicit anti-automation responses.
const botDefenseScript = `
(() => {
	if (document.querySelector('form#captcha-form, iframe[src*="recaptcha"]')) return true;
	return /unusual traffic/i.test(document.body.innerText || '');
})()
`

// Review panel scripts.

// reviewCountScripts probe how many reviews are rendered, in priority order:
// unique review-id attributes, the review card class, aria-label pattern.
var reviewCountScripts = []string{
	`(() => {
		const seen = {};
		document.querySelectorAll('[data-review-id]').forEach(el => {
			seen[el.getAttribute('data-review-id')] = true;
		});
		return Object.keys(seen).length;
	})()`,
	`document.querySelectorAll('div.jftiEf').length`,
	`(() => {
		let n = 0;
		document.querySelectorAll('div[aria-label]').forEach(el => {
			if (/\d+ star/i.test(el.getAttribute('aria-label'))) n++;
		});
		return n;
	})()`,
}

var reviewScrollScripts = []string{
	`(() => {
		let el = document.querySelector('[data-review-id]');
		while (el && el.scrollHeight <= el.clientHeight + 1) el = el.parentElement;
		if (!el || el === document.documentElement) return false;
		el.scrollTop = el.scrollHeight;
		return true;
	})()`,
	`(() => {
		const main = document.querySelector('div[role="main"]');
		if (!main) return false;
		const all = main.querySelectorAll('div');
		for (const el of all) {
			const style = window.getComputedStyle(el);
			if ((style.overflowY === 'auto' || style.overflowY === 'scroll') && el.clientHeight > 200) {
				el.scrollTop = el.scrollHeight;
				return true;
			}
		}
		return false;
	})()`,
}

var reviewHeightScripts = []string{
	`(() => {
		let el = document.querySelector('[data-review-id]');
		while (el && el.scrollHeight <= el.clientHeight + 1) el = el.parentElement;
		return el ? el.scrollHeight : -1;
	})()`,
}

// reviewSnapshotScript serializes each unique review container. The rating
// label, reviewer photo label and likes label travel as raw strings; parsing
// and validation happen on the Go side.
const reviewSnapshotScript = `
(() => {
	const seen = {};
	const out = [];
	document.querySelectorAll('[data-review-id]').forEach(el => {
		const id = el.getAttribute('data-review-id');
		if (!id || seen[id]) return;
		// Prefer the outermost container carrying this id.
		let root = el;
		while (root.parentElement && root.parentElement.getAttribute
			&& root.parentElement.getAttribute('data-review-id') === id) {
			root = root.parentElement;
		}
		seen[id] = true;

		const photo = root.querySelector('button img, img[src*="googleusercontent"]');
		const profileLink = root.querySelector('a[href*="/maps/contrib/"], button[data-href*="/maps/contrib/"]');
		const ratingEl = root.querySelector('span[role="img"][aria-label], div[role="img"][aria-label]');

		const texts = [];
		root.querySelectorAll('span, div').forEach(n => {
			if (n.children.length === 0) {
				const t = (n.innerText || '').trim();
				if (t) texts.push(t);
			}
		});

		let likesLabel = '';
		root.querySelectorAll('button[aria-label]').forEach(b => {
			const l = b.getAttribute('aria-label');
			if (/helpful|like/i.test(l)) likesLabel = l;
		});

		out.push({
			id: id,
			label: root.getAttribute('aria-label') || '',
			photoLabel: photo ? (photo.getAttribute('alt') || photo.getAttribute('aria-label') || '') : '',
			profileText: profileLink ? (profileLink.innerText || '').trim() : '',
			ratingLabel: ratingEl ? ratingEl.getAttribute('aria-label') : '',
			texts: texts,
			likesLabel: likesLabel,
			fullText: root.innerText || ''
		});
	});
	return out;
})()
`

// panelSnapshotScript serializes the opened detail panel: the header title
// and rating row, the website action, and the info-row texts. The panel
// renders fields the feed card truncates or omits; the Go side classifies the
// row texts the same way it classifies card fragments.
const panelSnapshotScript = `
(() => {
	const main = document.querySelector('div[role="main"]');
	if (!main) return { title: '', ratingLabel: '', website: '', fragments: [] };

	const h1 = main.querySelector('h1');
	const ratingEl = main.querySelector('div[role="img"][aria-label], span[role="img"][aria-label]');
	let ratingLabel = ratingEl ? (ratingEl.getAttribute('aria-label') || '') : '';
	if (ratingEl && ratingEl.parentElement) {
		ratingLabel = ratingLabel + ' ' + (ratingEl.parentElement.innerText || '');
	}

	const site = main.querySelector('a[data-item-id="authority"]');

	const fragments = [];
	main.querySelectorAll('button[data-item-id], a[data-item-id], div[data-item-id]').forEach(el => {
		let t = (el.getAttribute('aria-label') || el.innerText || '').trim();
		const idx = t.indexOf(': ');
		if (idx > 0 && idx < 20) t = t.slice(idx + 2);
		if (t) fragments.push(t);
	});

	return {
		title: h1 ? (h1.innerText || '').trim() : '',
		ratingLabel: ratingLabel.trim(),
		website: site ? site.href : '',
		fragments: fragments
	};
})()
`

// Review tab activation strategies: tab role, button role, then the
// review-count button pattern.
var reviewTabScripts = []string{
	`(() => {
		const tabs = document.querySelectorAll('button[role="tab"]');
		for (const t of tabs) {
			const l = (t.getAttribute('aria-label') || '') + ' ' + (t.innerText || '');
			if (/review/i.test(l)) { t.click(); return true; }
		}
		return false;
	})()`,
	`(() => {
		const buttons = document.querySelectorAll('button');
		for (const b of buttons) {
			if (/^reviews?$/i.test((b.innerText || '').trim())) { b.click(); return true; }
		}
		return false;
	})()`,
	`(() => {
		const buttons = document.querySelectorAll('button[aria-label]');
		for (const b of buttons) {
			if (/\d[\d.,]* reviews/i.test(b.getAttribute('aria-label'))) { b.click(); return true; }
		}
		return false;
	})()`,
}

// listingClickScriptTemplate finds a rendered listing by URL or label and
// clicks it. Match strategies run inside one evaluate call because the list
// may re-render between a lookup and a click.
const listingClickScriptTemplate = `
(() => {
	const wantURL = %q;
	const wantPath = %q;
	const wantLabel = %q;
	const anchors = Array.from(document.querySelectorAll('a[href*="/maps/place/"]'));
	let hit = anchors.find(a => a.href === wantURL);
	if (!hit && wantPath) {
		hit = anchors.find(a => a.href.toLowerCase().indexOf(wantPath) !== -1);
	}
	if (!hit && wantLabel) {
		hit = anchors.find(a => (a.getAttribute('aria-label') || '').toLowerCase().indexOf(wantLabel) !== -1);
	}
	if (!hit) return false;
	hit.click();
	return true;
})()
`

// shareOpenScriptTemplate opens the share dialog for one review.
const shareOpenScriptTemplate = `
(() => {
	const root = document.querySelector('[data-review-id=%q]');
	if (!root) return false;
	const buttons = root.querySelectorAll('button');
	for (const b of buttons) {
		const l = (b.getAttribute('aria-label') || '') + ' ' + (b.innerText || '');
		if (/share/i.test(l)) { b.click(); return true; }
	}
	return false;
})()
`

const shareLinkScript = `
(() => {
	const box = document.querySelector('input[type="text"][value*="http"], input[readonly][value*="http"], div[role="dialog"] input');
	return box ? (box.value || '') : '';
})()
`

// Panel close strategies: Back button, Close button, then Escape is sent by
// the Go side as the last resort.
var panelCloseScripts = []string{
	`(() => {
		const b = document.querySelector('button[aria-label="Back"], button[aria-label^="Back to"]');
		if (!b) return false;
		b.click();
		return true;
	})()`,
	`(() => {
		const b = document.querySelector('button[aria-label="Close"], button[aria-label^="Close"]');
		if (!b) return false;
		b.click();
		return true;
	})()`,
}

const feedVisibleScript = `!!document.querySelector('div[role="feed"], div[role="article"]')`
