package renderer

// In-page scripts for Naver blog posts. The post body lives inside the smart
// editor containers; older posts use the legacy markup, so the probes carry
// both generations of selectors.

// bodyTextJS returns the post body text, falling back to the whole document
// when no known container matches.
const bodyTextJS = `(() => {
	const el = document.querySelector('#post-view\\[\\d+\\], .se-main-container');
	return el ? el.innerText : document.body.innerText;
})()`

// frameSrcJS returns the src of the first iframe hosted on the content host.
// Naver wraps the actual post in such an iframe on desktop URLs.
const frameSrcJS = `(() => {
	const frames = document.querySelectorAll('iframe');
	for (const f of frames) {
		const src = f.getAttribute('src') || '';
		if (src.includes(%q)) return src;
	}
	return '';
})()`

// contentHeightJS measures the tallest known content container, floored by
// the body scroll height so the PDF never truncates.
const contentHeightJS = `(() => {
	const selectors = [
		'#post-view\\[\\d+\\]',
		'.se-main-container',
		'.blog2_container',
		'.post-content',
		'#content',
		'.se_component_wrap',
	];
	let max = 0;
	for (const sel of selectors) {
		document.querySelectorAll(sel).forEach((el) => {
			const h = el.getBoundingClientRect().height;
			if (h > max) max = h;
		});
	}
	return Math.max(max, document.body.scrollHeight);
})()`

// autoScrollJS steps through the page so lazy images start loading, then
// resolves once every image has settled plus a short pause. A broken image
// fires error instead of load; both settle the wait.
const autoScrollJS = `new Promise((resolve) => {
	let total = 0;
	const distance = 300;
	const timer = setInterval(() => {
		const scrollHeight = document.body.scrollHeight;
		window.scrollBy(0, distance);
		total += distance;
		if (total >= scrollHeight) {
			clearInterval(timer);
			const images = document.getElementsByTagName('img');
			Promise.all(
				Array.from(images).map((img) => {
					if (img.complete) return;
					return new Promise((r) => {
						img.addEventListener('load', r);
						img.addEventListener('error', r);
					});
				})
			).then(() => setTimeout(resolve, 1000));
		}
	}, 100);
})`

// bannerJS prepends the provenance banner: source URL plus the stated reason
// the post was kept. Both values arrive pre-quoted via fmt.
const bannerJS = `(() => {
	const url = %q;
	const reason = %q;

	const infoDiv = document.createElement('div');
	infoDiv.style.width = '100%%';
	infoDiv.style.background = '#f8f9fa';
	infoDiv.style.borderBottom = '2px solid #e9ecef';
	infoDiv.style.padding = '20px';
	infoDiv.style.marginBottom = '30px';
	infoDiv.style.boxSizing = 'border-box';
	infoDiv.style.position = 'relative';
	infoDiv.style.zIndex = '1000';
	infoDiv.style.fontFamily = '-apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif';

	const urlDiv = document.createElement('div');
	urlDiv.style.fontSize = '16px';
	urlDiv.style.marginBottom = '12px';
	urlDiv.style.color = '#495057';
	urlDiv.style.fontWeight = '600';
	const urlLabel = document.createElement('span');
	urlLabel.setAttribute('style', 'color:#868e96;width:70px;display:inline-block;');
	urlLabel.textContent = 'URL:';
	const urlLink = document.createElement('a');
	urlLink.setAttribute('style', 'color:#228be6;text-decoration:none;word-break:break-all;font-weight:500;');
	urlLink.href = url;
	urlLink.textContent = url;
	urlDiv.appendChild(urlLabel);
	urlDiv.appendChild(document.createTextNode(' '));
	urlDiv.appendChild(urlLink);

	const reasonDiv = document.createElement('div');
	reasonDiv.style.fontSize = '15px';
	reasonDiv.style.lineHeight = '1.6';
	reasonDiv.style.color = '#495057';
	reasonDiv.style.whiteSpace = 'pre-wrap';
	const reasonLabel = document.createElement('span');
	reasonLabel.setAttribute('style', 'color:#868e96;width:70px;display:inline-block;');
	reasonLabel.textContent = '생성 사유:';
	const reasonText = document.createElement('span');
	reasonText.setAttribute('style', 'font-weight:500;');
	reasonText.textContent = reason;
	reasonDiv.appendChild(reasonLabel);
	reasonDiv.appendChild(document.createTextNode(' '));
	reasonDiv.appendChild(reasonText);

	infoDiv.appendChild(urlDiv);
	infoDiv.appendChild(reasonDiv);
	if (document.body.firstChild) {
		document.body.insertBefore(infoDiv, document.body.firstChild);
	} else {
		document.body.appendChild(infoDiv);
	}
	return true;
})()`
